package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

const workerColumns = `internal_id, national_id, name, phone, email, gender, unit_number, face_image_url,
	valid_from, valid_to, status, external_person_id, provision_pending, biometric_vector, created_at, updated_at`

const upsertWorker = `
	INSERT INTO workers (internal_id, national_id, name, phone, email, gender, unit_number, face_image_url,
		valid_from, valid_to, status, external_person_id, provision_pending, biometric_vector, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15, NOW()), NOW())
	ON CONFLICT (internal_id) DO UPDATE
	SET national_id = EXCLUDED.national_id,
	    name = EXCLUDED.name,
	    phone = EXCLUDED.phone,
	    email = EXCLUDED.email,
	    gender = EXCLUDED.gender,
	    unit_number = EXCLUDED.unit_number,
	    face_image_url = EXCLUDED.face_image_url,
	    valid_from = EXCLUDED.valid_from,
	    valid_to = EXCLUDED.valid_to,
	    status = EXCLUDED.status,
	    external_person_id = EXCLUDED.external_person_id,
	    provision_pending = EXCLUDED.provision_pending,
	    biometric_vector = EXCLUDED.biometric_vector,
	    updated_at = NOW()
	RETURNING created_at, updated_at
`

// rowQuerier is the part of a pool or a transaction an upsert needs
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type WorkerRepository struct {
	pool PgxPool
}

func NewWorkerRepository(pool PgxPool) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

func scanWorker(row scanner) (*domain.WorkerRecord, error) {
	var w domain.WorkerRecord
	var validFrom, validTo *time.Time
	var status string
	var vector *pgvector.Vector

	err := row.Scan(
		&w.InternalID,
		&w.NationalID,
		&w.Name,
		&w.Phone,
		&w.Email,
		&w.Gender,
		&w.UnitNumber,
		&w.FaceImageURL,
		&validFrom,
		&validTo,
		&status,
		&w.ExternalPersonID,
		&w.ProvisionPending,
		&vector,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.ValidFrom = timeOrZero(validFrom)
	w.ValidTo = timeOrZero(validTo)
	w.Status = domain.WorkerStatus(status)
	w.BiometricVector = fromVector(vector)
	return &w, nil
}

func (r *WorkerRepository) getOne(ctx context.Context, where string, arg string) (*domain.WorkerRecord, error) {
	query := `SELECT ` + workerColumns + ` FROM workers WHERE ` + where

	w, err := scanWorker(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWorkerNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WorkerRepository) GetByInternalID(ctx context.Context, internalID string) (*domain.WorkerRecord, error) {
	w, err := r.getOne(ctx, `internal_id = $1`, internalID)
	if err != nil && !errors.Is(err, domain.ErrWorkerNotFound) {
		return nil, fmt.Errorf("get worker by internal_id: %w", err)
	}
	return w, err
}

// GetByNationalID never matches the empty national id
func (r *WorkerRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.WorkerRecord, error) {
	if nationalID == "" {
		return nil, domain.ErrWorkerNotFound
	}
	w, err := r.getOne(ctx, `national_id = $1`, nationalID)
	if err != nil && !errors.Is(err, domain.ErrWorkerNotFound) {
		return nil, fmt.Errorf("get worker by national_id: %w", err)
	}
	return w, err
}

func upsert(ctx context.Context, q rowQuerier, rec *domain.WorkerRecord) error {
	status := rec.Status
	if status == "" {
		status = domain.WorkerStatusActive
	}

	err := q.QueryRow(ctx, upsertWorker,
		rec.InternalID,
		rec.NationalID,
		rec.Name,
		rec.Phone,
		rec.Email,
		rec.Gender,
		rec.UnitNumber,
		rec.FaceImageURL,
		nullableTime(rec.ValidFrom),
		nullableTime(rec.ValidTo),
		string(status),
		rec.ExternalPersonID,
		rec.ProvisionPending,
		toVector(rec.BiometricVector),
		nullableTime(rec.CreatedAt),
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrWorkerExists.WithError(err)
		}
		return fmt.Errorf("upsert worker: %w", err)
	}
	rec.Status = status
	return nil
}

// Upsert inserts or fully replaces the record keyed by internal id
func (r *WorkerRepository) Upsert(ctx context.Context, rec *domain.WorkerRecord) error {
	return upsert(ctx, r.pool, rec)
}

// Replace moves a record to a new internal id in one transaction
func (r *WorkerRepository) Replace(ctx context.Context, previousInternalID string, rec *domain.WorkerRecord) error {
	if previousInternalID == rec.InternalID {
		return r.Upsert(ctx, rec)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM workers WHERE internal_id = $1`, previousInternalID); err != nil {
		return fmt.Errorf("replace worker: delete previous: %w", err)
	}
	if err := upsert(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (r *WorkerRepository) Delete(ctx context.Context, internalID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM workers WHERE internal_id = $1`, internalID)
	if err != nil {
		return fmt.Errorf("delete worker: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrWorkerNotFound
	}

	return nil
}

// ListAll returns every record in insertion order
func (r *WorkerRepository) ListAll(ctx context.Context) ([]*domain.WorkerRecord, error) {
	query := `SELECT ` + workerColumns + ` FROM workers ORDER BY created_at, internal_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var workers []*domain.WorkerRecord
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workers: %w", err)
	}

	return workers, nil
}

var _ WorkerRepositoryInterface = (*WorkerRepository)(nil)
