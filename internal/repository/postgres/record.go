package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carelane/carelane/internal/domain/record"
)

type RecordRepo struct {
	db *gorm.DB
}

func (r *RecordRepo) Create(ctx context.Context, e *record.Entry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		// The partial unique index on (patient_id) WHERE is_current fires
		// when a concurrent writer beat us to the flip.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return record.ErrDuplicateActive
		}
		return fmt.Errorf("inserting record number entry: %w", err)
	}
	return nil
}

func (r *RecordRepo) ClearCurrent(ctx context.Context, patientID uuid.UUID, updatedBy uuid.UUID) (*record.Entry, error) {
	var e record.Entry
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND is_current", patientID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading current record number entry: %w", err)
	}

	e.IsCurrent = false
	e.UpdatedBy = updatedBy
	if err := r.db.WithContext(ctx).Save(&e).Error; err != nil {
		return nil, fmt.Errorf("clearing current record number entry: %w", err)
	}
	return &e, nil
}

func (r *RecordRepo) Current(ctx context.Context, patientID uuid.UUID) (*record.Entry, error) {
	var e record.Entry
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND is_current", patientID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, record.ErrEntryNotFound
		}
		return nil, fmt.Errorf("loading current record number entry: %w", err)
	}
	return &e, nil
}

func (r *RecordRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*record.Entry, error) {
	var entries []*record.Entry
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("effective_at DESC, created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing record number entries: %w", err)
	}
	return entries, nil
}
