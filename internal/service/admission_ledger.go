package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/pkg/metrics"
)

// AdmissionLedger manages admission/discharge episodes and their duration
// accounting. At most one episode per patient is open at any time.
type AdmissionLedger struct {
	uow     domain.UnitOfWork
	reads   domain.Stores
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewAdmissionLedger(uow domain.UnitOfWork, reads domain.Stores, m *metrics.Collector, log *zap.Logger) *AdmissionLedger {
	return &AdmissionLedger{uow: uow, reads: reads, metrics: m, log: log}
}

// Admit opens a new episode and moves the patient to Inpatient (or
// Emergency for emergency admissions). Fails with a ConflictError when an
// episode is already open.
func (s *AdmissionLedger) Admit(ctx context.Context, patientID uuid.UUID, cmd admission.AdmitCommand, actor domain.Actor, reason string) (*admission.Admission, error) {
	var a *admission.Admission
	err := s.uow.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		p, err := st.Patients.GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		a, err = admitTx(ctx, st, p, cmd, actor, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AdmissionsTotal.WithLabelValues(string(a.Type)).Inc()
		s.metrics.ActiveAdmissions.Inc()
	}
	s.log.Info("patient admitted",
		zap.String("patient_id", patientID.String()),
		zap.String("admission_id", a.ID.String()),
		zap.String("type", string(a.Type)),
		zap.String("ward", a.Ward),
	)
	return a, nil
}

// Discharge closes the open episode, computes the stay durations and moves
// the patient to Discharged. Discharging twice fails with a ConflictError
// because no episode remains open.
func (s *AdmissionLedger) Discharge(ctx context.Context, patientID uuid.UUID, cmd admission.DischargeCommand, actor domain.Actor, reason string) (*admission.Admission, error) {
	return s.close(ctx, patientID, cmd, patient.StatusDischarged, actor, reason)
}

// TransferOut closes the open episode as an inter-facility transfer and
// moves the patient to Transferred.
func (s *AdmissionLedger) TransferOut(ctx context.Context, patientID uuid.UUID, cmd admission.DischargeCommand, actor domain.Actor, reason string) (*admission.Admission, error) {
	cmd.Type = admission.DischargeTransferOut
	return s.close(ctx, patientID, cmd, patient.StatusTransferred, actor, reason)
}

func (s *AdmissionLedger) close(ctx context.Context, patientID uuid.UUID, cmd admission.DischargeCommand, target patient.Status, actor domain.Actor, reason string) (*admission.Admission, error) {
	var a *admission.Admission
	err := s.uow.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		p, err := st.Patients.GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		a, err = dischargeTx(ctx, st, p, cmd, target, actor, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DischargesTotal.WithLabelValues(string(a.DischargeType)).Inc()
		s.metrics.ActiveAdmissions.Dec()
	}
	s.log.Info("patient discharged",
		zap.String("patient_id", patientID.String()),
		zap.String("admission_id", a.ID.String()),
		zap.String("discharge_type", string(a.DischargeType)),
		zap.Intp("stay_days", a.StayDays),
	)
	return a, nil
}

// Relocate moves the open episode to a new ward/bed without closing it.
func (s *AdmissionLedger) Relocate(ctx context.Context, patientID uuid.UUID, to admission.Location, actor domain.Actor) (*admission.Admission, error) {
	var a *admission.Admission
	err := s.uow.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		p, err := st.Patients.GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		a, err = relocateTx(ctx, st, p, to, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("patient relocated",
		zap.String("patient_id", patientID.String()),
		zap.String("ward", a.Ward),
		zap.String("bed", a.Bed),
	)
	return a, nil
}

// Active returns the patient's open episode, or ErrNoActiveAdmission.
func (s *AdmissionLedger) Active(ctx context.Context, patientID uuid.UUID) (*admission.Admission, error) {
	if _, err := s.reads.Patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.reads.Admissions.Active(ctx, patientID)
}

// History returns every episode for a patient, newest admission first.
func (s *AdmissionLedger) History(ctx context.Context, patientID uuid.UUID) ([]*admission.Admission, error) {
	if _, err := s.reads.Patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.reads.Admissions.ListByPatient(ctx, patientID)
}

// CurrentDuration computes the live length of the open episode as of now.
// Never persisted while the episode is open, so it cannot go stale.
func (s *AdmissionLedger) CurrentDuration(ctx context.Context, patientID uuid.UUID, now time.Time) (hours, days int, err error) {
	a, err := s.Active(ctx, patientID)
	if err != nil {
		return 0, 0, err
	}
	hours, days = a.CurrentDuration(now)
	return hours, days, nil
}

// Occupancy lists the open episodes placed in a ward.
func (s *AdmissionLedger) Occupancy(ctx context.Context, ward string) (*admission.WardOccupancy, error) {
	active, err := s.reads.Admissions.ListActiveByWard(ctx, ward)
	if err != nil {
		return nil, err
	}

	occ := &admission.WardOccupancy{Ward: ward, AsOf: time.Now().UTC(), Occupants: make([]admission.Occupant, 0, len(active))}
	for _, a := range active {
		occ.Occupants = append(occ.Occupants, admission.Occupant{
			PatientID:   a.PatientID,
			AdmissionID: a.ID,
			Bed:         a.Bed,
			AdmittedAt:  a.AdmittedAt,
		})
	}
	return occ, nil
}
