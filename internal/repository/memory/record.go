package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain/record"
)

type recordRepo struct {
	s    *Store
	inTx bool
}

func (r *recordRepo) Create(ctx context.Context, e *record.Entry) error {
	defer r.s.lock(r.inTx)()

	if e.IsCurrent {
		for _, existing := range r.s.records {
			if existing.PatientID == e.PatientID && existing.IsCurrent {
				return record.ErrDuplicateActive
			}
		}
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.s.records[e.ID] = *e
	return nil
}

func (r *recordRepo) ClearCurrent(ctx context.Context, patientID uuid.UUID, updatedBy uuid.UUID) (*record.Entry, error) {
	defer r.s.lock(r.inTx)()

	for id, e := range r.s.records {
		if e.PatientID == patientID && e.IsCurrent {
			e.IsCurrent = false
			e.UpdatedBy = updatedBy
			e.UpdatedAt = time.Now().UTC()
			r.s.records[id] = e
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *recordRepo) Current(ctx context.Context, patientID uuid.UUID) (*record.Entry, error) {
	defer r.s.lock(r.inTx)()

	for _, e := range r.s.records {
		if e.PatientID == patientID && e.IsCurrent {
			cp := e
			return &cp, nil
		}
	}
	return nil, record.ErrEntryNotFound
}

func (r *recordRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*record.Entry, error) {
	defer r.s.lock(r.inTx)()

	var entries []*record.Entry
	for _, e := range r.s.records {
		if e.PatientID == patientID {
			cp := e
			entries = append(entries, &cp)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EffectiveAt.Equal(entries[j].EffectiveAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].EffectiveAt.After(entries[j].EffectiveAt)
	})
	return entries, nil
}
