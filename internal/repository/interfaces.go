package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// PgxPool is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WorkerRepositoryInterface defines operations for worker record access
type WorkerRepositoryInterface interface {
	GetByInternalID(ctx context.Context, internalID string) (*domain.WorkerRecord, error)
	GetByNationalID(ctx context.Context, nationalID string) (*domain.WorkerRecord, error)
	Upsert(ctx context.Context, rec *domain.WorkerRecord) error
	Replace(ctx context.Context, previousInternalID string, rec *domain.WorkerRecord) error
	Delete(ctx context.Context, internalID string) error
	ListAll(ctx context.Context) ([]*domain.WorkerRecord, error)
}

// RequestLogRepositoryInterface stores the bounded external request log
type RequestLogRepositoryInterface interface {
	audit.Logger
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}
