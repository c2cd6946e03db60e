package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carelane/carelane/internal/domain/timeline"
)

// TimelineRepo only appends and lists; events have no update or delete
// path.
type TimelineRepo struct {
	db *gorm.DB
}

func (r *TimelineRepo) Append(ctx context.Context, e *timeline.Event) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("appending timeline event: %w", err)
	}
	return nil
}

func (r *TimelineRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, since *time.Time) ([]*timeline.Event, error) {
	q := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if since != nil {
		q = q.Where("occurred_at >= ?", *since)
	}

	var events []*timeline.Event
	err := q.Order("occurred_at DESC, seq DESC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("listing timeline events: %w", err)
	}
	return events, nil
}
