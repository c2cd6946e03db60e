package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/timeline"
	"github.com/carelane/carelane/pkg/metrics"
)

// TransitionCommand carries the target state plus whatever the required
// ledger side effect needs. Which fields matter depends on the target:
// admissions read the Admission* fields, discharges the Discharge* fields,
// death declarations DeclaredAt.
type TransitionCommand struct {
	Target patient.Status
	Reason string

	// Force permits a same-state transition as an audited no-op.
	Force bool

	AdmittedAt    time.Time
	AdmissionType admission.AdmissionType
	Location      admission.Location
	Diagnosis     string

	DischargedAt  time.Time
	DischargeType admission.DischargeType
	FinalLocation *admission.Location

	DeclaredAt time.Time
}

// StatusMachine is the single entry point for status changes. Every
// successful transition validates through the relevant ledger operation,
// updates the patient status, recomputes the derived cache and appends the
// timeline events, all inside one unit of work.
type StatusMachine struct {
	uow     domain.UnitOfWork
	reads   domain.Stores
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewStatusMachine(uow domain.UnitOfWork, reads domain.Stores, m *metrics.Collector, log *zap.Logger) *StatusMachine {
	return &StatusMachine{uow: uow, reads: reads, metrics: m, log: log}
}

func (s *StatusMachine) Transition(ctx context.Context, patientID uuid.UUID, cmd TransitionCommand, actor domain.Actor) (*patient.Patient, error) {
	if !cmd.Target.IsValid() {
		return nil, validationErr("target status is invalid")
	}

	var (
		result *patient.Patient
		from   patient.Status
	)
	err := s.uow.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		p, err := st.Patients.GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		from = p.Status

		if p.Status == cmd.Target {
			if !cmd.Force {
				return &InvalidTransitionError{From: p.Status, To: cmd.Target}
			}
			// Forced no-op: state untouched, but the timeline records that
			// someone asserted the status.
			if err := appendEvent(ctx, st, p.ID, timeline.KindStatusChanged, actor, time.Now().UTC(),
				timeline.StatusChangedPayload(string(p.Status), string(cmd.Target), cmd.Reason)); err != nil {
				return err
			}
			result = p
			return nil
		}

		switch cmd.Target {
		case patient.StatusInpatient, patient.StatusEmergency:
			atype := s.admissionType(cmd, p.Status)
			if cmd.Target == patient.StatusInpatient && atype == admission.TypeEmergency {
				return validationErr("emergency admissions require target status emergency")
			}
			admittedAt := cmd.AdmittedAt
			if admittedAt.IsZero() {
				admittedAt = time.Now().UTC()
			}
			_, err = admitTx(ctx, st, p, admission.AdmitCommand{
				AdmittedAt: admittedAt,
				Type:       atype,
				Location:   cmd.Location,
				Diagnosis:  cmd.Diagnosis,
			}, actor, cmd.Reason)

		case patient.StatusDischarged:
			_, err = dischargeTx(ctx, st, p, admission.DischargeCommand{
				DischargedAt:  s.dischargedAt(cmd),
				Type:          cmd.DischargeType,
				Diagnosis:     cmd.Diagnosis,
				FinalLocation: cmd.FinalLocation,
			}, patient.StatusDischarged, actor, cmd.Reason)

		case patient.StatusTransferred:
			_, err = dischargeTx(ctx, st, p, admission.DischargeCommand{
				DischargedAt:  s.dischargedAt(cmd),
				Type:          admission.DischargeTransferOut,
				Diagnosis:     cmd.Diagnosis,
				FinalLocation: cmd.FinalLocation,
			}, patient.StatusTransferred, actor, cmd.Reason)

		case patient.StatusDeceased:
			err = deceaseTx(ctx, st, p, s.declaredAt(cmd), actor, cmd.Reason)

		case patient.StatusOutpatient:
			err = s.toOutpatientTx(ctx, st, p, actor, cmd.Reason)
		}
		if err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil && from != result.Status {
		s.metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(result.Status)).Inc()
	}
	s.log.Info("status transition",
		zap.String("patient_id", patientID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(result.Status)),
		zap.String("actor_id", actor.ID.String()),
	)
	return result, nil
}

// toOutpatientTx is the one transition with no ledger side effect:
// bookkeeping after a discharge or transfer, e.g. when the patient returns
// for ambulatory follow-up.
func (s *StatusMachine) toOutpatientTx(ctx context.Context, st domain.Stores, p *patient.Patient, actor domain.Actor, reason string) error {
	if !p.Status.CanTransitionTo(patient.StatusOutpatient) {
		return &InvalidTransitionError{From: p.Status, To: patient.StatusOutpatient}
	}

	previous := p.Status
	p.Status = patient.StatusOutpatient
	if err := syncDerived(ctx, st, p); err != nil {
		return err
	}
	return appendEvent(ctx, st, p.ID, timeline.KindStatusChanged, actor, time.Now().UTC(),
		timeline.StatusChangedPayload(string(previous), string(patient.StatusOutpatient), reason))
}

func (s *StatusMachine) admissionType(cmd TransitionCommand, from patient.Status) admission.AdmissionType {
	// An emergency target always opens an emergency episode; the two must
	// agree because the episode type decides the resulting status.
	if cmd.Target == patient.StatusEmergency {
		return admission.TypeEmergency
	}
	if cmd.AdmissionType != "" {
		return cmd.AdmissionType
	}
	// Returning patients are readmissions; first-timers are scheduled.
	if from == patient.StatusDischarged || from == patient.StatusTransferred {
		return admission.TypeReadmission
	}
	return admission.TypeScheduled
}

func (s *StatusMachine) dischargedAt(cmd TransitionCommand) time.Time {
	if !cmd.DischargedAt.IsZero() {
		return cmd.DischargedAt
	}
	return time.Now().UTC()
}

func (s *StatusMachine) declaredAt(cmd TransitionCommand) time.Time {
	if !cmd.DeclaredAt.IsZero() {
		return cmd.DeclaredAt
	}
	return time.Now().UTC()
}
