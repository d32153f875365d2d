package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8090"`
	Environment string `envconfig:"ENV" default:"development"`

	// Store
	StoreBackend string `envconfig:"STORE_BACKEND" default:"postgres"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	// Sync
	DryRun          bool          `envconfig:"DRY_RUN" default:"false"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`
	PassTimeout     time.Duration `envconfig:"PASS_TIMEOUT" default:"10m"`
	CallTimeout     time.Duration `envconfig:"CALL_TIMEOUT" default:"15s"`
	RequestLogLimit int           `envconfig:"REQUEST_LOG_LIMIT" default:"1000"`

	// Roster (event source)
	RosterBaseURL      string `envconfig:"ROSTER_BASE_URL"`
	RosterAPIKey       string `envconfig:"ROSTER_API_KEY"`
	RosterEventsPath   string `envconfig:"ROSTER_EVENTS_PATH" default:"/functions/v1/sync-events/pending"`
	RosterCompletePath string `envconfig:"ROSTER_COMPLETE_PATH" default:"/functions/v1/sync-events/%s/complete"`
	RosterFailPath     string `envconfig:"ROSTER_FAIL_PATH" default:"/functions/v1/sync-events/%s/fail"`
	RosterStatusPath   string `envconfig:"ROSTER_STATUS_PATH" default:"/functions/v1/workers/update-status"`

	// HikCentral (access control)
	HikCentralBaseURL          string `envconfig:"HIKCENTRAL_BASE_URL"`
	HikCentralAppKey           string `envconfig:"HIKCENTRAL_APP_KEY"`
	HikCentralAppSecret        string `envconfig:"HIKCENTRAL_APP_SECRET"`
	HikCentralPrivilegeGroupID string `envconfig:"HIKCENTRAL_PRIVILEGE_GROUP_ID" default:"1"`
	HikCentralOrgIndexCode     string `envconfig:"HIKCENTRAL_ORG_INDEX_CODE" default:"1"`
	HikCentralInsecureTLS      bool   `envconfig:"HIKCENTRAL_INSECURE_TLS" default:"false"`

	// Biometrics
	FaceProvider       string        `envconfig:"FACE_PROVIDER" default:"deepface"`
	FaceDetector       string        `envconfig:"FACE_DETECTOR" default:"none"`
	DeepFaceURL        string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5000"`
	AWSRegion          string        `envconfig:"AWS_REGION" default:"us-east-1"`
	FaceMatchThreshold float64       `envconfig:"FACE_MATCH_THRESHOLD" default:"0.6"`
	VectorCacheTTL     time.Duration `envconfig:"VECTOR_CACHE_TTL" default:"24h"`

	// Security
	OpsAPIToken string `envconfig:"OPS_API_TOKEN"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field requirements envconfig tags cannot express.
// Dry-run skips the external credentials since no request leaves the process.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", StoreBackendPostgres)
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be positive")
	}
	if c.FaceMatchThreshold <= 0 {
		return fmt.Errorf("FACE_MATCH_THRESHOLD must be positive")
	}

	if c.DryRun {
		return nil
	}

	if c.RosterBaseURL == "" || c.RosterAPIKey == "" {
		return fmt.Errorf("ROSTER_BASE_URL and ROSTER_API_KEY are required")
	}
	if c.HikCentralBaseURL == "" || c.HikCentralAppKey == "" || c.HikCentralAppSecret == "" {
		return fmt.Errorf("HIKCENTRAL_BASE_URL, HIKCENTRAL_APP_KEY and HIKCENTRAL_APP_SECRET are required")
	}
	return nil
}

func (c *Config) UsesMemoryStore() bool {
	return c.StoreBackend == StoreBackendMemory
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
