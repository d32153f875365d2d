package service

import (
	"context"
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// EventFailure is one event reported as failed during a pass
type EventFailure struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason"`
}

// PassSummary describes one fetch-reconcile-report cycle
type PassSummary struct {
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Fetched      int            `json:"fetched"`
	Completed    int            `json:"completed"`
	Failed       int            `json:"failed"`
	Skipped      int            `json:"skipped"`
	ReportErrors int            `json:"report_errors"`
	Failures     []EventFailure `json:"failures,omitempty"`
}

func (s PassSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// RunPass fetches pending events, reconciles them in order and reports exactly one
// outcome per event id. A failed report is logged and the pass moves on; the
// roster re-delivers whatever was not acknowledged.
func (e *Engine) RunPass(ctx context.Context) (PassSummary, error) {
	summary := PassSummary{StartedAt: e.now()}

	var events []domain.Event
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		events, err = e.source.FetchPendingEvents(ctx)
		return err
	})
	if err != nil {
		summary.FinishedAt = e.now()
		return summary, fmt.Errorf("fetch pending events: %w", err)
	}
	summary.Fetched = len(events)

	if len(events) == 0 {
		e.logger.Debug("no pending events")
	}

	seen := make(map[string]struct{}, len(events))
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = e.now()
			return summary, fmt.Errorf("pass interrupted: %w", err)
		}

		if event.ID != "" {
			if _, dup := seen[event.ID]; dup {
				e.logger.Warn("duplicate event id in batch", "event_id", event.ID)
				summary.Skipped++
				continue
			}
			seen[event.ID] = struct{}{}
		}

		outcome := e.reconcileGuarded(ctx, event)
		if outcome.Success {
			summary.Completed++
		} else {
			summary.Failed++
			summary.Failures = append(summary.Failures, EventFailure{EventID: event.ID, Reason: outcome.Reason})
		}

		if err := e.report(ctx, event.ID, outcome); err != nil {
			summary.ReportErrors++
			e.logger.Error("failed to report outcome",
				"event_id", event.ID,
				"success", outcome.Success,
				"error", err,
			)
		}
	}

	summary.FinishedAt = e.now()
	e.logger.Info("pass finished",
		"fetched", summary.Fetched,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"report_errors", summary.ReportErrors,
		"duration_ms", summary.Duration().Milliseconds(),
	)
	return summary, nil
}

func (e *Engine) reconcileGuarded(ctx context.Context, event domain.Event) (outcome domain.Outcome) {
	err := e.guard(func() error {
		outcome = e.Reconcile(ctx, event)
		return nil
	})
	if err != nil {
		return domain.Failed(err.Error())
	}
	return outcome
}

func (e *Engine) report(ctx context.Context, eventID string, outcome domain.Outcome) error {
	if eventID == "" {
		return fmt.Errorf("event has no id; outcome cannot be acknowledged")
	}

	return e.call(ctx, func(ctx context.Context) error {
		if outcome.Success {
			return e.source.ReportComplete(ctx, eventID)
		}
		return e.source.ReportFailed(ctx, eventID, outcome.Reason)
	})
}
