package service

import (
	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// Dedup finds an already-stored worker whose face matches a new sample
type Dedup struct {
	cmp Comparator
}

func NewDedup(cmp Comparator) *Dedup {
	return &Dedup{cmp: cmp}
}

// Resolve returns the first record, in the order given, whose vector is strictly
// closer than the threshold. Records without a vector are skipped. Pure: the
// caller decides what a match means.
func (d *Dedup) Resolve(vector []float64, records []*domain.WorkerRecord) (*domain.WorkerRecord, float64) {
	if len(vector) == 0 {
		return nil, 0
	}

	threshold := d.cmp.Threshold()
	for _, rec := range records {
		if rec == nil || !rec.HasBiometricVector() {
			continue
		}
		if dist := d.cmp.Distance(vector, rec.BiometricVector); dist < threshold {
			return rec, dist
		}
	}
	return nil, 0
}
