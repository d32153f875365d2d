package memory

import (
	"context"
	"sync"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/audit"
)

// RequestLog is a bounded in-process request log, newest last
type RequestLog struct {
	mu     sync.Mutex
	events []audit.Event
	limit  int
}

func NewRequestLog(limit int) *RequestLog {
	if limit <= 0 {
		limit = 1000
	}
	return &RequestLog{limit: limit}
}

func (l *RequestLog) Log(_ context.Context, event audit.Event) error {
	event = audit.Normalize(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if over := len(l.events) - l.limit; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	return nil
}

// ListRecent returns newest first
func (l *RequestLog) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.events) {
		limit = len(l.events)
	}

	out := make([]audit.Event, 0, limit)
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}
