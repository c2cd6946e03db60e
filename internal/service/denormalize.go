package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
)

// syncDerived recomputes the patient's cached summary fields from ledger
// state and persists them. It is a pure function of what the current
// transaction can see and runs inside the same unit of work as the mutation
// it follows, so a committed reader can never observe the cache and the
// ledgers disagreeing. If it fails, the whole transaction rolls back.
func syncDerived(ctx context.Context, st domain.Stores, p *patient.Patient) error {
	cur, err := st.Records.Current(ctx, p.ID)
	switch {
	case err == nil:
		p.CurrentRecordNumber = cur.Value
	case errors.Is(err, record.ErrEntryNotFound):
		// No ledger rows: leave the cached value as-is (legacy bootstrap).
	default:
		return fmt.Errorf("recomputing current record number: %w", err)
	}

	active, err := st.Admissions.Active(ctx, p.ID)
	switch {
	case err == nil:
		id := active.ID
		p.CurrentAdmissionID = &id
	case errors.Is(err, admission.ErrNoActiveAdmission):
		p.CurrentAdmissionID = nil
	default:
		return fmt.Errorf("recomputing current admission: %w", err)
	}

	total, days, err := st.Admissions.Stats(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("recomputing admission stats: %w", err)
	}
	p.TotalAdmissions = total
	p.TotalInpatientDays = days

	if err := st.Patients.Save(ctx, p); err != nil {
		return fmt.Errorf("persisting derived fields: %w", err)
	}
	return nil
}
