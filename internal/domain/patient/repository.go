package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on duplicate NationalID.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetForUpdate retrieves a patient holding an exclusive row lock for the
	// duration of the surrounding transaction. Lifecycle operations take this
	// lock before evaluating "is there already an active admission" so the
	// partial unique indexes act as a backstop, not as the race detector.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Save persists lifecycle and derived-cache changes made by the lifecycle
	// services. Not exposed through any handler.
	Save(ctx context.Context, p *Patient) error

	// ExistsByNationalID checks for uniqueness without fetching the full record.
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID *uuid.UUID) (bool, error)
}
