package domain

import (
	"slices"
	"time"
)

// WorkerStatus is driven by the roster; blocked stays blocked until the roster unblocks it
type WorkerStatus string

const (
	WorkerStatusActive  WorkerStatus = "active"
	WorkerStatusBlocked WorkerStatus = "blocked"
)

// WorkerRecord is one known physical-access identity. ProvisionPending marks an
// identity created remotely whose face upload or access grant has not gone through.
type WorkerRecord struct {
	InternalID       string       `json:"internal_id"`
	NationalID       string       `json:"national_id,omitempty"`
	Name             string       `json:"name"`
	Phone            string       `json:"phone,omitempty"`
	Email            string       `json:"email,omitempty"`
	Gender           string       `json:"gender,omitempty"`
	UnitNumber       string       `json:"unit_number,omitempty"`
	FaceImageURL     string       `json:"face_image_url,omitempty"`
	ValidFrom        time.Time    `json:"valid_from,omitempty"`
	ValidTo          time.Time    `json:"valid_to,omitempty"`
	Status           WorkerStatus `json:"status"`
	ExternalPersonID string       `json:"external_person_id,omitempty"`
	ProvisionPending bool         `json:"provision_pending,omitempty"`
	BiometricVector  []float64    `json:"-"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// IsProvisioned reports whether the worker has an identity in the access-control system
func (w *WorkerRecord) IsProvisioned() bool {
	return w.ExternalPersonID != ""
}

func (w *WorkerRecord) IsBlocked() bool {
	return w.Status == WorkerStatusBlocked
}

func (w *WorkerRecord) HasBiometricReference() bool {
	return w.FaceImageURL != ""
}

func (w *WorkerRecord) HasBiometricVector() bool {
	return len(w.BiometricVector) > 0
}

// SameCoreIdentity reports whether name and national id are unchanged
func (w *WorkerRecord) SameCoreIdentity(other *WorkerRecord) bool {
	return w.Name == other.Name && w.NationalID == other.NationalID
}

// SameDescriptiveFields compares every roster-driven field except the validity end.
func (w *WorkerRecord) SameDescriptiveFields(other *WorkerRecord) bool {
	return w.SameCoreIdentity(other) &&
		w.InternalID == other.InternalID &&
		w.Phone == other.Phone &&
		w.Email == other.Email &&
		w.Gender == other.Gender &&
		w.UnitNumber == other.UnitNumber &&
		w.FaceImageURL == other.FaceImageURL &&
		w.Status == other.Status &&
		w.ValidFrom.Equal(other.ValidFrom)
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (w *WorkerRecord) Clone() *WorkerRecord {
	if w == nil {
		return nil
	}
	c := *w
	c.BiometricVector = slices.Clone(w.BiometricVector)
	return &c
}
