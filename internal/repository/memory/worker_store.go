// Package memory holds process-local stores for dry runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// WorkerStore keeps worker records in a map; ListAll follows insertion order
type WorkerStore struct {
	mu      sync.RWMutex
	records map[string]*domain.WorkerRecord
	order   []string
	now     func() time.Time
}

func NewWorkerStore() *WorkerStore {
	return &WorkerStore{
		records: make(map[string]*domain.WorkerRecord),
		now:     time.Now,
	}
}

func (s *WorkerStore) GetByInternalID(_ context.Context, internalID string) (*domain.WorkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[internalID]
	if !ok {
		return nil, domain.ErrWorkerNotFound
	}
	return rec.Clone(), nil
}

func (s *WorkerStore) GetByNationalID(_ context.Context, nationalID string) (*domain.WorkerRecord, error) {
	if nationalID == "" {
		return nil, domain.ErrWorkerNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if rec := s.records[id]; rec.NationalID == nationalID {
			return rec.Clone(), nil
		}
	}
	return nil, domain.ErrWorkerNotFound
}

func (s *WorkerStore) Upsert(_ context.Context, rec *domain.WorkerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsertLocked(rec)
}

func (s *WorkerStore) upsertLocked(rec *domain.WorkerRecord) error {
	if rec.NationalID != "" {
		for _, id := range s.order {
			if other := s.records[id]; id != rec.InternalID && other.NationalID == rec.NationalID {
				return domain.ErrWorkerExists
			}
		}
	}

	now := s.now().UTC()
	if rec.Status == "" {
		rec.Status = domain.WorkerStatusActive
	}

	if existing, ok := s.records[rec.InternalID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		s.order = append(s.order, rec.InternalID)
	}
	rec.UpdatedAt = now

	s.records[rec.InternalID] = rec.Clone()
	return nil
}

func (s *WorkerStore) Replace(_ context.Context, previousInternalID string, rec *domain.WorkerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.records[previousInternalID]
	if hadPrev && previousInternalID != rec.InternalID {
		s.deleteLocked(previousInternalID)
	}

	if err := s.upsertLocked(rec); err != nil {
		if hadPrev && previousInternalID != rec.InternalID {
			s.records[previousInternalID] = prev
			s.order = append(s.order, previousInternalID)
		}
		return err
	}
	return nil
}

func (s *WorkerStore) Delete(_ context.Context, internalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[internalID]; !ok {
		return domain.ErrWorkerNotFound
	}
	s.deleteLocked(internalID)
	return nil
}

func (s *WorkerStore) deleteLocked(internalID string) {
	delete(s.records, internalID)
	for i, id := range s.order {
		if id == internalID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *WorkerStore) ListAll(_ context.Context) ([]*domain.WorkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.WorkerRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}
