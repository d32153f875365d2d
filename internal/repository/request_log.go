package repository

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
)

// RequestLogRepository keeps the most recent external requests, pruning past limit
type RequestLogRepository struct {
	pool  PgxPool
	limit int
}

func NewRequestLogRepository(pool PgxPool, limit int) *RequestLogRepository {
	if limit <= 0 {
		limit = 1000
	}
	return &RequestLogRepository{pool: pool, limit: limit}
}

func (r *RequestLogRepository) Log(ctx context.Context, event audit.Event) error {
	event = audit.Normalize(event)

	query := `
		INSERT INTO request_logs (
			id, system, method, endpoint, status_code, success, message,
			request_body, response_body, duration_ms, dry_run, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		string(event.System),
		event.Method,
		event.Endpoint,
		event.StatusCode,
		event.Success,
		event.Message,
		event.RequestBody,
		event.ResponseBody,
		event.DurationMs,
		event.DryRun,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}

	prune := `
		DELETE FROM request_logs
		WHERE id IN (
			SELECT id FROM request_logs
			ORDER BY created_at DESC
			OFFSET $1
		)
	`
	if _, err := r.pool.Exec(ctx, prune, r.limit); err != nil {
		return fmt.Errorf("prune request log: %w", err)
	}

	return nil
}

// ListRecent returns newest first
func (r *RequestLogRepository) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	query := `
		SELECT id, system, method, endpoint, status_code, success, message,
		       request_body, response_body, duration_ms, dry_run, created_at
		FROM request_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0, limit)
	for rows.Next() {
		var e audit.Event
		var system string
		if err := rows.Scan(
			&e.ID,
			&system,
			&e.Method,
			&e.Endpoint,
			&e.StatusCode,
			&e.Success,
			&e.Message,
			&e.RequestBody,
			&e.ResponseBody,
			&e.DurationMs,
			&e.DryRun,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan request log: %w", err)
		}
		e.System = audit.System(system)
		events = append(events, e)
	}

	return events, rows.Err()
}

var _ RequestLogRepositoryInterface = (*RequestLogRepository)(nil)
