package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/biometric"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

const (
	reasonBlockedLocally  = "Worker is blocked locally"
	reasonBlockedOnRoster = "Worker is blocked on the roster; not provisioned"
)

type EngineConfig struct {
	PrivilegeGroupID string
	CallTimeout      time.Duration
}

// Engine reconciles roster events against the local store and the access-control platform.
// It keeps no progress of its own: each attempt re-derives the action from current state.
type Engine struct {
	store  WorkerStore
	access AccessControl
	source EventSource
	bio    Biometrics
	dedup  *Dedup
	config EngineConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine wires the collaborators. bio may be nil, in which case duplicate
// detection and face upload are skipped.
func NewEngine(store WorkerStore, access AccessControl, source EventSource, bio Biometrics, cfg EngineConfig, logger *slog.Logger) *Engine {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	if cfg.PrivilegeGroupID == "" {
		cfg.PrivilegeGroupID = "1"
	}

	e := &Engine{
		store:  store,
		access: access,
		source: source,
		bio:    bio,
		config: cfg,
		logger: logger.With("component", "engine"),
		now:    time.Now,
	}
	if bio != nil {
		e.dedup = NewDedup(bio)
	}
	return e
}

// Reconcile applies one event and returns its single outcome.
// Every entry is attempted; the event fails with the first failure.
func (e *Engine) Reconcile(ctx context.Context, event domain.Event) domain.Outcome {
	if err := validateEvent(event); err != nil {
		return domain.Failed(err.Error())
	}

	candidates, err := normalizeAll(event.Workers)
	if err != nil {
		return domain.Failed(err.Error())
	}

	logger := e.logger.With("event_id", event.ID, "event_type", string(event.Type))

	var firstErr error
	for _, cand := range candidates {
		err := e.guard(func() error {
			switch event.Type {
			case domain.EventWorkerDeleted:
				return e.applyDelete(ctx, cand)
			default:
				return e.resolveAndApply(ctx, cand)
			}
		})
		if err != nil {
			logger.Warn("worker entry failed",
				"internal_id", cand.InternalID,
				"national_id", cand.NationalID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return domain.Failed(firstErr.Error())
	}
	return domain.Succeeded()
}

// resolveAndApply decides between provision, block, extend and update for one candidate
func (e *Engine) resolveAndApply(ctx context.Context, cand *domain.WorkerRecord) error {
	existing, err := e.lookup(ctx, cand.NationalID)
	if err != nil {
		return err
	}
	if existing == nil {
		if existing, err = e.getByInternalID(ctx, cand.InternalID); err != nil {
			return err
		}
	}

	var sample *biometric.Sample
	if existing == nil && cand.HasBiometricReference() && e.bio != nil {
		sample, err = e.extract(ctx, cand.FaceImageURL)
		if err != nil {
			return err
		}

		records, err := e.store.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("list workers: %w", err)
		}

		if match, dist := e.dedup.Resolve(sample.Vector, records); match != nil {
			e.logger.Info("candidate resolved by face match",
				"internal_id", cand.InternalID,
				"matched_internal_id", match.InternalID,
				"distance", dist,
			)
			existing = match
		}
	}

	if existing == nil {
		return e.provision(ctx, cand, sample)
	}

	if existing.IsBlocked() {
		nationalID := existing.NationalID
		if nationalID == "" {
			nationalID = cand.NationalID
		}
		return e.reportStatus(ctx, nationalID, existing.ExternalPersonID, reasonBlockedLocally)
	}

	if !existing.IsProvisioned() {
		return domain.ErrNotFoundLocally.WithError(
			fmt.Errorf("worker %s has no external person id", existing.InternalID))
	}

	if existing.ProvisionPending {
		return e.resume(ctx, existing, cand)
	}

	if existing.SameDescriptiveFields(cand) {
		if existing.ValidTo.Equal(cand.ValidTo) {
			return nil
		}
		if cand.ValidTo.After(existing.ValidTo) {
			return e.extend(ctx, existing, cand.ValidTo)
		}
	}

	return e.update(ctx, existing, cand, sample)
}

// provision creates the identity, uploads the face and grants access. Steps after
// creation are undone by deleting the person so a retry starts clean.
func (e *Engine) provision(ctx context.Context, cand *domain.WorkerRecord, sample *biometric.Sample) error {
	if cand.IsBlocked() {
		return e.reportStatus(ctx, cand.NationalID, "", reasonBlockedOnRoster)
	}

	var externalID string
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		externalID, err = e.access.CreatePerson(ctx, cand)
		return err
	})
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}

	rec := cand.Clone()
	rec.ExternalPersonID = externalID
	if sample != nil {
		rec.BiometricVector = sample.Vector
	}

	err = e.completeProvisioning(ctx, rec, sample)
	if err == nil {
		if err = e.store.Upsert(ctx, rec); err != nil {
			err = fmt.Errorf("save worker: %w", err)
		}
	}
	if err != nil {
		return e.compensate(ctx, rec, err)
	}

	e.logger.Info("worker provisioned",
		"internal_id", rec.InternalID,
		"external_person_id", externalID,
	)
	return nil
}

func (e *Engine) completeProvisioning(ctx context.Context, rec *domain.WorkerRecord, sample *biometric.Sample) error {
	if sample != nil {
		err := e.call(ctx, func(ctx context.Context) error {
			return e.access.AttachBiometric(ctx, rec.ExternalPersonID, sample.Image)
		})
		if err != nil {
			return fmt.Errorf("attach biometric: %w", err)
		}
	}

	err := e.call(ctx, func(ctx context.Context) error {
		return e.access.GrantAccess(ctx, rec.ExternalPersonID, e.config.PrivilegeGroupID, rec.ValidFrom, rec.ValidTo)
	})
	if err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	return nil
}

// compensate removes a half-provisioned person. When that also fails the record is
// kept as pending so the next attempt finishes the existing identity instead of
// creating another.
func (e *Engine) compensate(ctx context.Context, rec *domain.WorkerRecord, cause error) error {
	delErr := e.call(ctx, func(ctx context.Context) error {
		return e.access.DeletePerson(ctx, rec.ExternalPersonID)
	})
	if delErr == nil {
		return cause
	}

	e.logger.Error("rollback of provisioned person failed",
		"internal_id", rec.InternalID,
		"external_person_id", rec.ExternalPersonID,
		"error", delErr,
	)
	pending := rec.Clone()
	pending.BiometricVector = nil
	pending.ProvisionPending = true
	if err := e.store.Upsert(ctx, pending); err != nil {
		e.logger.Error("failed to keep record of orphaned person",
			"internal_id", rec.InternalID,
			"external_person_id", rec.ExternalPersonID,
			"error", err,
		)
	}
	return fmt.Errorf("%w (rollback failed: %v)", cause, delErr)
}

// resume completes provisioning of an identity left pending by a failed rollback.
// The record stays pending until the face upload and the grant both succeed.
func (e *Engine) resume(ctx context.Context, existing, cand *domain.WorkerRecord) error {
	if cand.IsBlocked() {
		return e.reportStatus(ctx, cand.NationalID, existing.ExternalPersonID, reasonBlockedOnRoster)
	}

	rec := cand.Clone()
	rec.ExternalPersonID = existing.ExternalPersonID
	rec.CreatedAt = existing.CreatedAt

	var sample *biometric.Sample
	if e.bio != nil && cand.HasBiometricReference() {
		var err error
		if sample, err = e.extract(ctx, cand.FaceImageURL); err != nil {
			return err
		}
		rec.BiometricVector = sample.Vector
	}

	if !existing.SameDescriptiveFields(cand) || !existing.ValidTo.Equal(cand.ValidTo) {
		err := e.call(ctx, func(ctx context.Context) error {
			return e.access.UpdatePerson(ctx, rec.ExternalPersonID, rec)
		})
		if err != nil {
			return fmt.Errorf("update person: %w", err)
		}
	}

	if err := e.completeProvisioning(ctx, rec, sample); err != nil {
		return err
	}
	if err := e.save(ctx, existing.InternalID, rec); err != nil {
		return err
	}

	e.logger.Info("pending provisioning completed",
		"internal_id", rec.InternalID,
		"external_person_id", rec.ExternalPersonID,
	)
	return nil
}

func (e *Engine) extend(ctx context.Context, existing *domain.WorkerRecord, validTo time.Time) error {
	err := e.call(ctx, func(ctx context.Context) error {
		return e.access.ExtendValidity(ctx, existing.ExternalPersonID, validTo)
	})
	if err != nil {
		return fmt.Errorf("extend validity: %w", err)
	}

	updated := existing.Clone()
	updated.ValidTo = validTo
	if err := e.store.Upsert(ctx, updated); err != nil {
		return fmt.Errorf("save worker: %w", err)
	}
	return nil
}

// update pushes the candidate's fields onto the existing identity and replaces the local record
func (e *Engine) update(ctx context.Context, existing, cand *domain.WorkerRecord, sample *biometric.Sample) error {
	updated := cand.Clone()
	updated.ExternalPersonID = existing.ExternalPersonID
	updated.BiometricVector = existing.BiometricVector
	updated.CreatedAt = existing.CreatedAt

	reprocess := e.bio != nil && cand.HasBiometricReference() &&
		(cand.FaceImageURL != existing.FaceImageURL || !existing.HasBiometricVector())
	if reprocess && (sample == nil || sample.ImageRef != cand.FaceImageURL) {
		var err error
		if sample, err = e.extract(ctx, cand.FaceImageURL); err != nil {
			return err
		}
	}

	err := e.call(ctx, func(ctx context.Context) error {
		return e.access.UpdatePerson(ctx, existing.ExternalPersonID, updated)
	})
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}

	if reprocess {
		err := e.call(ctx, func(ctx context.Context) error {
			return e.access.AttachBiometric(ctx, existing.ExternalPersonID, sample.Image)
		})
		if err != nil {
			return fmt.Errorf("attach biometric: %w", err)
		}
		updated.BiometricVector = sample.Vector
	}

	return e.save(ctx, existing.InternalID, updated)
}

// save stores rec, moving it off previousID when the roster changed its id
func (e *Engine) save(ctx context.Context, previousID string, rec *domain.WorkerRecord) error {
	var err error
	if rec.InternalID != previousID {
		err = e.store.Replace(ctx, previousID, rec)
	} else {
		err = e.store.Upsert(ctx, rec)
	}
	if err != nil {
		return fmt.Errorf("save worker: %w", err)
	}
	return nil
}

// applyDelete removes a provisioned worker; a missing or unprovisioned one is already gone
func (e *Engine) applyDelete(ctx context.Context, cand *domain.WorkerRecord) error {
	existing, err := e.lookup(ctx, cand.NationalID)
	if err != nil {
		return err
	}
	if existing == nil {
		existing, err = e.getByInternalID(ctx, cand.InternalID)
		if err != nil {
			return err
		}
	}
	if existing == nil || !existing.IsProvisioned() {
		return nil
	}

	err = e.call(ctx, func(ctx context.Context) error {
		return e.access.DeletePerson(ctx, existing.ExternalPersonID)
	})
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}

	if err := e.store.Delete(ctx, existing.InternalID); err != nil && !errors.Is(err, domain.ErrWorkerNotFound) {
		return fmt.Errorf("delete worker: %w", err)
	}

	e.logger.Info("worker removed",
		"internal_id", existing.InternalID,
		"external_person_id", existing.ExternalPersonID,
	)
	return nil
}

func (e *Engine) reportStatus(ctx context.Context, nationalID, externalID, reason string) error {
	err := e.call(ctx, func(ctx context.Context) error {
		return e.source.ReportWorkerStatus(ctx, nationalID, domain.WorkerStatusBlocked, externalID, reason)
	})
	if err != nil {
		return fmt.Errorf("report worker status: %w", err)
	}
	return nil
}

func (e *Engine) lookup(ctx context.Context, nationalID string) (*domain.WorkerRecord, error) {
	if nationalID == "" {
		return nil, nil
	}
	rec, err := e.store.GetByNationalID(ctx, nationalID)
	if errors.Is(err, domain.ErrWorkerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup worker: %w", err)
	}
	return rec, nil
}

func (e *Engine) getByInternalID(ctx context.Context, internalID string) (*domain.WorkerRecord, error) {
	if internalID == "" {
		return nil, nil
	}
	rec, err := e.store.GetByInternalID(ctx, internalID)
	if errors.Is(err, domain.ErrWorkerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup worker: %w", err)
	}
	return rec, nil
}

func (e *Engine) extract(ctx context.Context, ref string) (*biometric.Sample, error) {
	var sample *biometric.Sample
	err := e.call(ctx, func(ctx context.Context) error {
		var err error
		sample, err = e.bio.Extract(ctx, ref)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extract biometric: %w", err)
	}
	return sample, nil
}

// call bounds one remote operation by the configured timeout
func (e *Engine) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()
	return fn(ctx)
}

// guard turns a panic into an error so one entry cannot take down the pass
func (e *Engine) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recovered from panic", "panic", r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn()
}
