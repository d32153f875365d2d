package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/poller"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/service"
)

type SyncController interface {
	Trigger(ctx context.Context) (service.PassSummary, error)
	Status() poller.Status
}

type SyncHandler struct {
	sync   SyncController
	logger *slog.Logger
}

func NewSyncHandler(sync SyncController, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

// Status reports the poll driver state and the last pass summary
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.sync.Status())
}

// Trigger runs a pass synchronously and returns its summary.
// 409 when a pass is already in flight.
func (h *SyncHandler) Trigger(c *fiber.Ctx) error {
	h.logger.Info("manual pass requested", "ip", c.IP())

	summary, err := h.sync.Trigger(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"summary":     summary,
		"duration_ms": summary.Duration().Milliseconds(),
	})
}
