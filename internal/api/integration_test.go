//go:build integration

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/database"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/repository"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "accesssync_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	connStr := fmt.Sprintf("postgres://test:test@%s:%s/accesssync_test?sslmode=disable", host, port.Port())

	testDB, err = database.NewPool(ctx, database.DefaultPoolConfig(connStr))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	if err := database.Migrate(testDB, "accesssync_test", slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		testDB.Close()
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func newIntegrationRouter() *Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, &Dependencies{
		Requests: repository.NewRequestLogRepository(testDB, 100),
		Workers:  repository.NewWorkerRepository(testDB),
		DB:       testDB,
		APIToken: testToken,
	})
	router.Setup()
	return router
}

func TestIntegration_ReadyEndpoint(t *testing.T) {
	router := newIntegrationRouter()

	resp, err := router.App().Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestIntegration_WorkerLookup(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewWorkerRepository(testDB)
	err := repo.Upsert(ctx, &domain.WorkerRecord{
		InternalID:       "api-1",
		NationalID:       "555",
		Name:             "Integration Worker",
		Status:           domain.WorkerStatusActive,
		ExternalPersonID: "E555",
		BiometricVector:  []float64{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	router := newIntegrationRouter()
	req := httptest.NewRequest("GET", "/v1/workers/555", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result["external_person_id"] != "E555" {
		t.Errorf("external_person_id = %v, want E555", result["external_person_id"])
	}
	if result["has_biometric"] != true {
		t.Errorf("has_biometric = %v, want true", result["has_biometric"])
	}
}

func TestIntegration_PgvectorExtension(t *testing.T) {
	ctx := context.Background()

	var version string
	err := testDB.QueryRow(ctx, "SELECT extversion FROM pg_extension WHERE extname = 'vector'").Scan(&version)
	if err != nil {
		t.Fatalf("pgvector not available: %v", err)
	}

	t.Logf("pgvector version: %s", version)
}
