package service

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/biometric"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

type WorkerStore interface {
	GetByInternalID(ctx context.Context, internalID string) (*domain.WorkerRecord, error)
	GetByNationalID(ctx context.Context, nationalID string) (*domain.WorkerRecord, error)
	Upsert(ctx context.Context, rec *domain.WorkerRecord) error
	Replace(ctx context.Context, previousInternalID string, rec *domain.WorkerRecord) error
	Delete(ctx context.Context, internalID string) error
	ListAll(ctx context.Context) ([]*domain.WorkerRecord, error)
}

// AccessControl is the person lifecycle of the access-control platform
type AccessControl interface {
	CreatePerson(ctx context.Context, rec *domain.WorkerRecord) (string, error)
	UpdatePerson(ctx context.Context, externalID string, rec *domain.WorkerRecord) error
	DeletePerson(ctx context.Context, externalID string) error
	ExtendValidity(ctx context.Context, externalID string, validTo time.Time) error
	AttachBiometric(ctx context.Context, externalID string, image []byte) error
	GrantAccess(ctx context.Context, externalID, groupID string, validFrom, validTo time.Time) error
}

type EventSource interface {
	FetchPendingEvents(ctx context.Context) ([]domain.Event, error)
	ReportComplete(ctx context.Context, eventID string) error
	ReportFailed(ctx context.Context, eventID, reason string) error
	ReportWorkerStatus(ctx context.Context, nationalID string, status domain.WorkerStatus, externalID, reason string) error
}

// Comparator measures how alike two vectors are; smaller is closer
type Comparator interface {
	Distance(a, b []float64) float64
	Threshold() float64
}

// Biometrics extracts comparable samples from an image reference
type Biometrics interface {
	Comparator
	Extract(ctx context.Context, imageRef string) (*biometric.Sample, error)
}
