package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

type WorkerReader interface {
	GetByNationalID(ctx context.Context, nationalID string) (*domain.WorkerRecord, error)
	ListAll(ctx context.Context) ([]*domain.WorkerRecord, error)
}

type WorkersHandler struct {
	store WorkerReader
}

func NewWorkersHandler(store WorkerReader) *WorkersHandler {
	return &WorkersHandler{store: store}
}

type WorkerResponse struct {
	*domain.WorkerRecord
	HasBiometric bool `json:"has_biometric"`
}

func toWorkerResponse(rec *domain.WorkerRecord) WorkerResponse {
	return WorkerResponse{
		WorkerRecord: rec,
		HasBiometric: rec.HasBiometricVector(),
	}
}

func (h *WorkersHandler) List(c *fiber.Ctx) error {
	records, err := h.store.ListAll(c.Context())
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	out := make([]WorkerResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toWorkerResponse(rec))
	}

	return c.JSON(fiber.Map{
		"workers": out,
		"count":   len(out),
	})
}

func (h *WorkersHandler) Get(c *fiber.Ctx) error {
	nationalID := c.Params("national_id")
	if nationalID == "" {
		return domain.ErrBadRequest
	}

	rec, err := h.store.GetByNationalID(c.Context(), nationalID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkerNotFound) {
			return domain.ErrWorkerNotFound
		}
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(toWorkerResponse(rec))
}
