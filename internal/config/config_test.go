package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	live := map[string]string{
		"DATABASE_URL":          "postgres://localhost/test",
		"ROSTER_BASE_URL":       "https://roster.example.com",
		"ROSTER_API_KEY":        "roster-key",
		"HIKCENTRAL_BASE_URL":   "https://hik.local",
		"HIKCENTRAL_APP_KEY":    "app-key",
		"HIKCENTRAL_APP_SECRET": "app-secret",
	}

	with := func(extra map[string]string) map[string]string {
		out := make(map[string]string, len(live)+len(extra))
		for k, v := range live {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads with all required vars",
			envVars: with(map[string]string{
				"PORT":          "8080",
				"ENV":           "production",
				"POLL_INTERVAL": "30s",
			}),
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.DatabaseURL == "postgres://localhost/test" &&
					c.PollInterval == 30*time.Second &&
					c.HikCentralAppSecret == "app-secret"
			},
		},
		{
			name:    "uses defaults when optional vars missing",
			envVars: live,
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8090 &&
					c.Environment == "development" &&
					c.StoreBackend == StoreBackendPostgres &&
					c.PollInterval == 60*time.Second &&
					c.CallTimeout == 15*time.Second &&
					c.FaceMatchThreshold == 0.6 &&
					c.RequestLogLimit == 1000 &&
					c.HikCentralPrivilegeGroupID == "1" &&
					c.FaceProvider == "deepface" &&
					c.FaceDetector == "none"
			},
		},
		{
			name: "fails when DATABASE_URL missing for postgres store",
			envVars: with(map[string]string{
				"DATABASE_URL": "",
			}),
			wantErr: true,
		},
		{
			name: "memory store needs no DATABASE_URL",
			envVars: with(map[string]string{
				"DATABASE_URL":  "",
				"STORE_BACKEND": "memory",
			}),
			wantErr: false,
			check: func(c *Config) bool {
				return c.UsesMemoryStore()
			},
		},
		{
			name: "fails on unknown store backend",
			envVars: with(map[string]string{
				"STORE_BACKEND": "redis",
			}),
			wantErr: true,
		},
		{
			name: "fails when hikcentral credentials missing",
			envVars: with(map[string]string{
				"HIKCENTRAL_APP_SECRET": "",
			}),
			wantErr: true,
		},
		{
			name: "dry run skips external credentials",
			envVars: map[string]string{
				"DRY_RUN":       "true",
				"STORE_BACKEND": "memory",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.DryRun && c.RosterAPIKey == ""
			},
		},
		{
			name: "fails on malformed duration",
			envVars: with(map[string]string{
				"POLL_INTERVAL": "soon",
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}
