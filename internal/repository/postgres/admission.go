package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carelane/carelane/internal/domain/admission"
)

type AdmissionRepo struct {
	db *gorm.DB
}

func (r *AdmissionRepo) Create(ctx context.Context, a *admission.Admission) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		// Partial unique index on (patient_id) WHERE is_active.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return admission.ErrAlreadyAdmitted
		}
		return fmt.Errorf("inserting admission: %w", err)
	}
	return nil
}

func (r *AdmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*admission.Admission, error) {
	var a admission.Admission
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, admission.ErrAdmissionNotFound
		}
		return nil, fmt.Errorf("loading admission: %w", err)
	}
	return &a, nil
}

func (r *AdmissionRepo) Save(ctx context.Context, a *admission.Admission) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("saving admission: %w", err)
	}
	return nil
}

func (r *AdmissionRepo) Active(ctx context.Context, patientID uuid.UUID) (*admission.Admission, error) {
	var a admission.Admission
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND is_active", patientID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, admission.ErrNoActiveAdmission
		}
		return nil, fmt.Errorf("loading active admission: %w", err)
	}
	return &a, nil
}

func (r *AdmissionRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*admission.Admission, error) {
	var list []*admission.Admission
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("admitted_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing admissions: %w", err)
	}
	return list, nil
}

func (r *AdmissionRepo) Stats(ctx context.Context, patientID uuid.UUID) (int, int, error) {
	var res struct {
		Total int
		Days  int
	}
	err := r.db.WithContext(ctx).
		Model(&admission.Admission{}).
		Select("COUNT(*) AS total, COALESCE(SUM(stay_days) FILTER (WHERE discharged_at IS NOT NULL), 0) AS days").
		Where("patient_id = ?", patientID).
		Scan(&res).Error
	if err != nil {
		return 0, 0, fmt.Errorf("aggregating admission stats: %w", err)
	}
	return res.Total, res.Days, nil
}

func (r *AdmissionRepo) ListActiveByWard(ctx context.Context, ward string) ([]*admission.Admission, error) {
	var list []*admission.Admission
	err := r.db.WithContext(ctx).
		Where("ward = ? AND is_active", ward).
		Order("admitted_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("listing ward occupancy: %w", err)
	}
	return list, nil
}
