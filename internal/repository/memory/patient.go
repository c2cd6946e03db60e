package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain/patient"
)

type patientRepo struct {
	s    *Store
	inTx bool
}

func (r *patientRepo) Create(ctx context.Context, p *patient.Patient) error {
	defer r.s.lock(r.inTx)()

	for _, existing := range r.s.patients {
		if existing.NationalID != "" && existing.NationalID == p.NationalID {
			return patient.ErrPatientAlreadyExists
		}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.patients[p.ID] = *p
	return nil
}

func (r *patientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	defer r.s.lock(r.inTx)()
	return r.get(id)
}

func (r *patientRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	// The unit-of-work mutex already gives exclusive access.
	defer r.s.lock(r.inTx)()
	return r.get(id)
}

func (r *patientRepo) get(id uuid.UUID) (*patient.Patient, error) {
	p, ok := r.s.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := p
	return &cp, nil
}

func (r *patientRepo) Save(ctx context.Context, p *patient.Patient) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.patients[p.ID]; !ok {
		return patient.ErrPatientNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.s.patients[p.ID] = *p
	return nil
}

func (r *patientRepo) ExistsByNationalID(ctx context.Context, nationalID string, excludeID *uuid.UUID) (bool, error) {
	defer r.s.lock(r.inTx)()

	for id, p := range r.s.patients {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if p.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}
