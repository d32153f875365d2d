package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

const (
	defaultRequestsLimit = 50
	maxRequestsLimit     = 1000
)

type RequestLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type RequestsHandler struct {
	log RequestLister
}

func NewRequestsHandler(log RequestLister) *RequestsHandler {
	return &RequestsHandler{log: log}
}

// List returns the most recent external calls, newest first
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultRequestsLimit)
	if limit < 1 || limit > maxRequestsLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
	}

	events, err := h.log.ListRecent(c.Context(), limit)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	if events == nil {
		events = []audit.Event{}
	}

	return c.JSON(fiber.Map{
		"requests": events,
		"count":    len(events),
	})
}
