package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/timeline"
)

// Timeline exposes the read side of the audit log. The write side lives in
// the lifecycle helpers, inside the mutating transactions; there is no
// standalone append surface.
type Timeline struct {
	reads domain.Stores
	log   *zap.Logger
}

func NewTimeline(reads domain.Stores, log *zap.Logger) *Timeline {
	return &Timeline{reads: reads, log: log}
}

// Query returns a patient's events ordered by (occurred_at, seq)
// descending, optionally restricted to events at or after since.
func (s *Timeline) Query(ctx context.Context, patientID uuid.UUID, since *time.Time) ([]*timeline.Event, error) {
	if _, err := s.reads.Patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.reads.Timeline.ListByPatient(ctx, patientID, since)
}
