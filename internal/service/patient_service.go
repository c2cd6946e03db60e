package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/pkg/metrics"
)

type PatientService struct {
	uow     domain.UnitOfWork
	reads   domain.Stores
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewPatientService(uow domain.UnitOfWork, reads domain.Stores, m *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{uow: uow, reads: reads, metrics: m, log: log}
}

// Register creates a patient in the default Outpatient state. When the
// command carries an initial record number it is assigned through the
// record ledger inside the same transaction, so the history and the cached
// value are consistent from the first committed read.
func (s *PatientService) Register(ctx context.Context, cmd *patient.CreatePatientCommand, actor domain.Actor) (*patient.Patient, error) {
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	var p *patient.Patient
	err := s.uow.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		exists, err := st.Patients.ExistsByNationalID(ctx, cmd.NationalID, nil)
		if err != nil {
			return fmt.Errorf("checking national ID uniqueness: %w", err)
		}
		if exists {
			return conflictErr(patient.ErrPatientAlreadyExists)
		}

		p = &patient.Patient{
			FirstName:   strings.TrimSpace(cmd.FirstName),
			LastName:    strings.TrimSpace(cmd.LastName),
			DateOfBirth: cmd.DateOfBirth,
			Gender:      cmd.Gender,
			NationalID:  strings.TrimSpace(cmd.NationalID),
			Status:      patient.StatusOutpatient,
			CreatedBy:   cmd.CreatedBy,
		}
		if err := st.Patients.Create(ctx, p); err != nil {
			return fmt.Errorf("creating patient: %w", err)
		}

		if strings.TrimSpace(cmd.RecordNumber) != "" {
			if _, err := assignRecordTx(ctx, st, p, record.AssignCommand{
				Value:       cmd.RecordNumber,
				Reason:      "initial registration",
				EffectiveAt: time.Now().UTC(),
			}, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PatientsRegisteredTotal.Inc()
	}
	s.log.Info("patient registered",
		zap.String("patient_id", p.ID.String()),
		zap.String("created_by", actor.ID.String()),
	)
	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.reads.Patients.GetByID(ctx, id)
}

// GetSummary is the O(1) read of the denormalized fields. It never touches
// the ledgers.
func (s *PatientService) GetSummary(ctx context.Context, id uuid.UUID) (*patient.Summary, error) {
	p, err := s.reads.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Summary(), nil
}

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}
	if cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if strings.TrimSpace(cmd.NationalID) == "" {
		errs = append(errs, "national_id is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
