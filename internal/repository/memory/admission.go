package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain/admission"
)

type admissionRepo struct {
	s    *Store
	inTx bool
}

func (r *admissionRepo) Create(ctx context.Context, a *admission.Admission) error {
	defer r.s.lock(r.inTx)()

	if a.IsActive {
		for _, existing := range r.s.admissions {
			if existing.PatientID == a.PatientID && existing.IsActive {
				return admission.ErrAlreadyAdmitted
			}
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.admissions[a.ID] = *a
	return nil
}

func (r *admissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*admission.Admission, error) {
	defer r.s.lock(r.inTx)()

	a, ok := r.s.admissions[id]
	if !ok {
		return nil, admission.ErrAdmissionNotFound
	}
	cp := a
	return &cp, nil
}

func (r *admissionRepo) Save(ctx context.Context, a *admission.Admission) error {
	defer r.s.lock(r.inTx)()

	if _, ok := r.s.admissions[a.ID]; !ok {
		return admission.ErrAdmissionNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	r.s.admissions[a.ID] = *a
	return nil
}

func (r *admissionRepo) Active(ctx context.Context, patientID uuid.UUID) (*admission.Admission, error) {
	defer r.s.lock(r.inTx)()

	for _, a := range r.s.admissions {
		if a.PatientID == patientID && a.IsActive {
			cp := a
			return &cp, nil
		}
	}
	return nil, admission.ErrNoActiveAdmission
}

func (r *admissionRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*admission.Admission, error) {
	defer r.s.lock(r.inTx)()

	var list []*admission.Admission
	for _, a := range r.s.admissions {
		if a.PatientID == patientID {
			cp := a
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AdmittedAt.After(list[j].AdmittedAt)
	})
	return list, nil
}

func (r *admissionRepo) Stats(ctx context.Context, patientID uuid.UUID) (int, int, error) {
	defer r.s.lock(r.inTx)()

	total, days := 0, 0
	for _, a := range r.s.admissions {
		if a.PatientID != patientID {
			continue
		}
		total++
		if a.DischargedAt != nil && a.StayDays != nil {
			days += *a.StayDays
		}
	}
	return total, days, nil
}

func (r *admissionRepo) ListActiveByWard(ctx context.Context, ward string) ([]*admission.Admission, error) {
	defer r.s.lock(r.inTx)()

	var list []*admission.Admission
	for _, a := range r.s.admissions {
		if a.IsActive && a.Ward == ward {
			cp := a
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AdmittedAt.Before(list[j].AdmittedAt)
	})
	return list, nil
}
