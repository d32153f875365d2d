package repository

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

const uniqueViolation = "23505"

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// toVector returns nil for an absent biometric so the column stays NULL
func toVector(v []float64) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	floats := make([]float32, len(v))
	for i, f := range v {
		floats[i] = float32(f)
	}
	vec := pgvector.NewVector(floats)
	return &vec
}

func fromVector(v *pgvector.Vector) []float64 {
	if v == nil || len(v.Slice()) == 0 {
		return nil
	}
	out := make([]float64, len(v.Slice()))
	for i, f := range v.Slice() {
		out[i] = float64(f)
	}
	return out
}

// nullableTime maps the zero time to SQL NULL
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
