package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/pkg/metrics"
)

// RecordLedger tracks a patient's hospital record-number history and keeps
// exactly one entry current per patient.
type RecordLedger struct {
	uow     domain.UnitOfWork
	reads   domain.Stores
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewRecordLedger(uow domain.UnitOfWork, reads domain.Stores, m *metrics.Collector, log *zap.Logger) *RecordLedger {
	return &RecordLedger{uow: uow, reads: reads, metrics: m, log: log}
}

// AssignRecordNumber appends a new entry and flips the previous current one
// to historical, atomically. A reader can never observe zero or two current
// entries for a patient that has history.
func (s *RecordLedger) AssignRecordNumber(ctx context.Context, patientID uuid.UUID, cmd record.AssignCommand, actor domain.Actor) (*record.Entry, error) {
	var entry *record.Entry
	err := s.uow.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		p, err := st.Patients.GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		entry, err = assignRecordTx(ctx, st, p, cmd, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordChangesTotal.Inc()
	}
	s.log.Info("record number assigned",
		zap.String("patient_id", patientID.String()),
		zap.String("value", entry.Value),
		zap.String("assigned_by", actor.ID.String()),
	)
	return entry, nil
}

// CurrentRecordNumber returns the value of the current ledger entry, falling
// back to the patient's cached value when no ledger rows exist yet (legacy
// data registered before the ledger).
func (s *RecordLedger) CurrentRecordNumber(ctx context.Context, patientID uuid.UUID) (string, error) {
	cur, err := s.reads.Records.Current(ctx, patientID)
	if err == nil {
		return cur.Value, nil
	}
	if !errors.Is(err, record.ErrEntryNotFound) {
		return "", fmt.Errorf("loading current record number: %w", err)
	}

	p, err := s.reads.Patients.GetByID(ctx, patientID)
	if err != nil {
		return "", err
	}
	return p.CurrentRecordNumber, nil
}

// History returns the full assignment history, newest effective_at first.
func (s *RecordLedger) History(ctx context.Context, patientID uuid.UUID) ([]*record.Entry, error) {
	if _, err := s.reads.Patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.reads.Records.ListByPatient(ctx, patientID)
}
