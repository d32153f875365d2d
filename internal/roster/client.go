package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

const maxResponseSize = 4 << 20

type Config struct {
	BaseURL      string
	APIKey       string
	EventsPath   string
	CompletePath string // fmt pattern, %s is the event id
	FailPath     string // fmt pattern, %s is the event id
	StatusPath   string
	Timeout      time.Duration
	DryRun       bool
}

// Client reads pending sync events from the roster and acknowledges them
type Client struct {
	config     Config
	httpClient *http.Client
	audit      audit.Logger
	logger     *slog.Logger
	now        func() time.Time
}

func NewClient(cfg Config, auditLog audit.Logger, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if auditLog == nil {
		auditLog = &audit.NoOpLogger{}
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		audit:      auditLog,
		logger:     logger.With("component", "roster"),
		now:        time.Now,
	}
}

type wireEvent struct {
	ID      domain.RosterID    `json:"id"`
	Type    domain.EventType   `json:"type"`
	Workers []domain.RawWorker `json:"workers"`
}

type eventsEnvelope struct {
	Events []json.RawMessage `json:"events"`
}

type failRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	NationalIDNumber string  `json:"nationalIdNumber"`
	Status           string  `json:"status"`
	ExternalID       *string `json:"externalId"`
	Reason           string  `json:"reason"`
}

// FetchPendingEvents accepts either a bare array or {"events": [...]}
func (c *Client) FetchPendingEvents(ctx context.Context) ([]domain.Event, error) {
	if c.config.DryRun {
		c.recordDryRun(ctx, http.MethodGet, c.config.EventsPath, "", `{"events":[]}`)
		return nil, nil
	}

	body, err := c.do(ctx, "fetch pending events", http.MethodGet, c.config.EventsPath, nil)
	if err != nil {
		return nil, err
	}

	events, err := decodeEvents(body)
	if err != nil {
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("fetch pending events: %w", err))
	}
	return events, nil
}

// decodeEvents splits the batch first so one malformed entry cannot hide the others
func decodeEvents(body []byte) ([]domain.Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
	} else {
		var env eventsEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		items = env.Events
	}

	events := make([]domain.Event, 0, len(items))
	for _, raw := range items {
		events = append(events, decodeEvent(raw))
	}
	return events, nil
}

// decodeEvent keeps whatever id and type a malformed entry carries so it can still be failed
func decodeEvent(raw json.RawMessage) domain.Event {
	var w wireEvent
	err := json.Unmarshal(raw, &w)
	if err == nil {
		return domain.Event{
			ID:      w.ID.String(),
			Type:    w.Type,
			Workers: w.Workers,
		}
	}

	var head struct {
		ID   domain.RosterID  `json:"id"`
		Type domain.EventType `json:"type"`
	}
	_ = json.Unmarshal(raw, &head)
	return domain.Event{
		ID:        head.ID.String(),
		Type:      head.Type,
		Malformed: err,
	}
}

func (c *Client) ReportComplete(ctx context.Context, eventID string) error {
	path := fmt.Sprintf(c.config.CompletePath, url.PathEscape(eventID))
	return c.post(ctx, "report complete", path, nil)
}

func (c *Client) ReportFailed(ctx context.Context, eventID, reason string) error {
	path := fmt.Sprintf(c.config.FailPath, url.PathEscape(eventID))
	return c.post(ctx, "report failed", path, failRequest{Reason: reason})
}

// ReportWorkerStatus pushes a status change for a worker back to the roster
func (c *Client) ReportWorkerStatus(ctx context.Context, nationalID string, status domain.WorkerStatus, externalID, reason string) error {
	req := statusRequest{
		NationalIDNumber: nationalID,
		Status:           string(status),
		Reason:           reason,
	}
	if externalID != "" {
		req.ExternalID = &externalID
	}
	return c.post(ctx, "report worker status", c.config.StatusPath, req)
}

func (c *Client) post(ctx context.Context, op, path string, payload any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
	}

	if c.config.DryRun {
		c.recordDryRun(ctx, http.MethodPost, path, string(body), `{"success":true}`)
		return nil
	}

	_, err := c.do(ctx, op, http.MethodPost, path, body)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	event := audit.Event{
		System:      audit.SystemRoster,
		Method:      method,
		Endpoint:    path,
		RequestBody: string(body),
	}
	start := c.now()
	defer func() {
		event.DurationMs = c.now().Sub(start).Milliseconds()
		c.record(ctx, event)
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		event.Message = err.Error()
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: build request: %w", op, err))
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		event.Message = err.Error()
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: %w", op, err))
	}
	defer func() { _ = resp.Body.Close() }()

	event.StatusCode = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		event.Message = err.Error()
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: read response: %w", op, err))
	}
	event.ResponseBody = string(respBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		event.Message = msg
		return nil, domain.ErrExternalSystem.WithError(fmt.Errorf("%s: http %d: %s", op, resp.StatusCode, msg))
	}

	event.Success = true
	return respBody, nil
}

func (c *Client) recordDryRun(ctx context.Context, method, path, requestBody, responseBody string) {
	c.record(ctx, audit.Event{
		System:       audit.SystemRoster,
		Method:       method,
		Endpoint:     path,
		StatusCode:   http.StatusOK,
		Success:      true,
		RequestBody:  requestBody,
		ResponseBody: responseBody,
		DryRun:       true,
	})
}

func (c *Client) record(ctx context.Context, event audit.Event) {
	if err := c.audit.Log(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn("failed to record request", "endpoint", event.Endpoint, "error", err)
	}
}
