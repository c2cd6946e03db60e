package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/internal/domain/timeline"
)

// The helpers below are the single implementation of every lifecycle
// mutation. They run inside an already-open unit of work, against a
// patient row that the caller has locked with GetForUpdate. Each helper:
// validates, writes the ledger, recomputes the derived cache, and appends
// timeline events. Nothing commits until the surrounding UnitOfWork.Do
// returns nil.

func admitTx(ctx context.Context, st domain.Stores, p *patient.Patient, cmd admission.AdmitCommand, actor domain.Actor, reason string) (*admission.Admission, error) {
	if cmd.AdmittedAt.IsZero() {
		return nil, validationErr("admitted_at is required")
	}
	if !cmd.Type.IsValid() {
		return nil, validationErr("type is invalid")
	}

	// The row lock on the patient makes this check authoritative; the
	// partial unique index is the backstop for writers that bypass it.
	// Checked before the transition guard so a double admit reports the
	// conflict rather than the secondary status error.
	if _, err := st.Admissions.Active(ctx, p.ID); err == nil {
		return nil, conflictErr(admission.ErrAlreadyAdmitted)
	} else if !errors.Is(err, admission.ErrNoActiveAdmission) {
		return nil, fmt.Errorf("checking active admission: %w", err)
	}

	target := patient.StatusInpatient
	if cmd.Type == admission.TypeEmergency {
		target = patient.StatusEmergency
	}
	if !p.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: p.Status, To: target}
	}

	a := &admission.Admission{
		PatientID:          p.ID,
		AdmittedAt:         cmd.AdmittedAt,
		Type:               cmd.Type,
		Ward:               cmd.Location.Ward,
		Bed:                cmd.Location.Bed,
		AdmissionDiagnosis: cmd.Diagnosis,
		IsActive:           true,
		CreatedBy:          actor.ID,
	}
	if err := st.Admissions.Create(ctx, a); err != nil {
		if errors.Is(err, admission.ErrAlreadyAdmitted) {
			return nil, conflictErr(err)
		}
		return nil, fmt.Errorf("creating admission: %w", err)
	}

	previous := p.Status
	p.Status = target

	if err := syncDerived(ctx, st, p); err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, st, p.ID, timeline.KindAdmitted, actor, cmd.AdmittedAt,
		timeline.AdmittedPayload(a.ID, string(a.Type), a.Ward, a.Bed, a.AdmissionDiagnosis)); err != nil {
		return nil, err
	}
	if err := appendEvent(ctx, st, p.ID, timeline.KindStatusChanged, actor, cmd.AdmittedAt,
		timeline.StatusChangedPayload(string(previous), string(target), reason)); err != nil {
		return nil, err
	}

	return a, nil
}

func dischargeTx(ctx context.Context, st domain.Stores, p *patient.Patient, cmd admission.DischargeCommand, target patient.Status, actor domain.Actor, reason string) (*admission.Admission, error) {
	a, err := st.Admissions.Active(ctx, p.ID)
	if err != nil {
		if errors.Is(err, admission.ErrNoActiveAdmission) {
			return nil, conflictErr(err)
		}
		return nil, fmt.Errorf("loading active admission: %w", err)
	}

	if !p.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: p.Status, To: target}
	}

	if cmd.Type == "" {
		return nil, validationErr("discharge type is required")
	}
	if !cmd.Type.IsValid() {
		return nil, validationErr("discharge type is invalid")
	}
	if cmd.DischargedAt.IsZero() {
		return nil, validationErr("discharged_at is required")
	}
	if cmd.DischargedAt.Before(a.AdmittedAt) {
		return nil, validationErr("discharged_at cannot precede admitted_at")
	}

	a.Close(cmd.DischargedAt, cmd.Type, cmd.Diagnosis, cmd.FinalLocation, actor.ID)
	if err := st.Admissions.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("closing admission: %w", err)
	}

	previous := p.Status
	p.Status = target

	if err := syncDerived(ctx, st, p); err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, st, p.ID, timeline.KindDischarged, actor, cmd.DischargedAt,
		timeline.DischargedPayload(a.ID, string(a.DischargeType), a.DischargeDiagnosis, *a.StayHours, *a.StayDays)); err != nil {
		return nil, err
	}
	if err := appendEvent(ctx, st, p.ID, timeline.KindStatusChanged, actor, cmd.DischargedAt,
		timeline.StatusChangedPayload(string(previous), string(target), reason)); err != nil {
		return nil, err
	}

	return a, nil
}

// relocateTx moves the active admission to a new ward/bed without closing
// the episode. Duration accounting is unaffected.
func relocateTx(ctx context.Context, st domain.Stores, p *patient.Patient, to admission.Location, actor domain.Actor) (*admission.Admission, error) {
	if strings.TrimSpace(to.Ward) == "" {
		return nil, validationErr("ward is required")
	}

	a, err := st.Admissions.Active(ctx, p.ID)
	if err != nil {
		if errors.Is(err, admission.ErrNoActiveAdmission) {
			return nil, conflictErr(err)
		}
		return nil, fmt.Errorf("loading active admission: %w", err)
	}

	fromWard, fromBed := a.Ward, a.Bed
	a.Ward = to.Ward
	a.Bed = to.Bed
	if err := st.Admissions.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("relocating admission: %w", err)
	}

	if err := syncDerived(ctx, st, p); err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, st, p.ID, timeline.KindTransferred, actor, time.Now().UTC(),
		timeline.TransferredPayload(a.ID, fromWard, fromBed, to.Ward, to.Bed)); err != nil {
		return nil, err
	}

	return a, nil
}

// deceaseTx declares a patient dead. An open admission, if any, is closed
// with discharge type death at the declared time; the death timestamp is
// always recorded.
func deceaseTx(ctx context.Context, st domain.Stores, p *patient.Patient, declaredAt time.Time, actor domain.Actor, reason string) error {
	if declaredAt.IsZero() {
		return validationErr("declared_at is required")
	}
	if !p.Status.CanTransitionTo(patient.StatusDeceased) {
		return &InvalidTransitionError{From: p.Status, To: patient.StatusDeceased}
	}

	a, err := st.Admissions.Active(ctx, p.ID)
	switch {
	case err == nil:
		if declaredAt.Before(a.AdmittedAt) {
			return validationErr("declared_at cannot precede admitted_at")
		}
		a.Close(declaredAt, admission.DischargeDeath, reason, nil, actor.ID)
		if err := st.Admissions.Save(ctx, a); err != nil {
			return fmt.Errorf("closing admission: %w", err)
		}
		if err := appendEvent(ctx, st, p.ID, timeline.KindDischarged, actor, declaredAt,
			timeline.DischargedPayload(a.ID, string(admission.DischargeDeath), reason, *a.StayHours, *a.StayDays)); err != nil {
			return err
		}
	case errors.Is(err, admission.ErrNoActiveAdmission):
		// Outpatient death: nothing to close.
	default:
		return fmt.Errorf("checking active admission: %w", err)
	}

	previous := p.Status
	p.Status = patient.StatusDeceased
	p.DeceasedAt = &declaredAt

	if err := syncDerived(ctx, st, p); err != nil {
		return err
	}

	if err := appendEvent(ctx, st, p.ID, timeline.KindDeathDeclared, actor, declaredAt,
		timeline.DeathDeclaredPayload(declaredAt, reason)); err != nil {
		return err
	}
	return appendEvent(ctx, st, p.ID, timeline.KindStatusChanged, actor, declaredAt,
		timeline.StatusChangedPayload(string(previous), string(patient.StatusDeceased), reason))
}

func assignRecordTx(ctx context.Context, st domain.Stores, p *patient.Patient, cmd record.AssignCommand, actor domain.Actor) (*record.Entry, error) {
	value := strings.TrimSpace(cmd.Value)
	if value == "" {
		return nil, validationErr("value is required")
	}

	effectiveAt := cmd.EffectiveAt
	if effectiveAt.IsZero() {
		effectiveAt = time.Now().UTC()
	}

	previous, err := st.Records.ClearCurrent(ctx, p.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("clearing current record number: %w", err)
	}

	previousValue := ""
	switch {
	case previous != nil:
		previousValue = previous.Value
	default:
		// Bootstrap: no ledger rows yet, but legacy data may have seeded
		// the cached field directly.
		previousValue = p.CurrentRecordNumber
	}

	e := &record.Entry{
		PatientID:     p.ID,
		Value:         value,
		IsCurrent:     true,
		PreviousValue: previousValue,
		EffectiveAt:   effectiveAt,
		Reason:        cmd.Reason,
		CreatedBy:     actor.ID,
	}
	if err := st.Records.Create(ctx, e); err != nil {
		if errors.Is(err, record.ErrDuplicateActive) {
			return nil, conflictErr(err)
		}
		return nil, fmt.Errorf("creating record number entry: %w", err)
	}

	if err := syncDerived(ctx, st, p); err != nil {
		return nil, err
	}

	if err := appendEvent(ctx, st, p.ID, timeline.KindRecordChanged, actor, effectiveAt,
		timeline.RecordChangedPayload(previousValue, value, cmd.Reason)); err != nil {
		return nil, err
	}

	return e, nil
}

func appendEvent(ctx context.Context, st domain.Stores, patientID uuid.UUID, kind timeline.Kind, actor domain.Actor, at time.Time, payload map[string]any) error {
	e := &timeline.Event{
		OccurredAt: at,
		PatientID:  patientID,
		Kind:       kind,
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		Payload:    payload,
	}
	if err := st.Timeline.Append(ctx, e); err != nil {
		return fmt.Errorf("appending timeline event: %w", err)
	}
	return nil
}
