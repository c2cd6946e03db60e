package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new episode. Returns ErrAlreadyAdmitted when the
	// patient already has an active one (partial unique index violation).
	Create(ctx context.Context, a *Admission) error

	// GetByID returns an episode by primary key.
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)

	// Save persists changes to an existing episode (close, relocation).
	Save(ctx context.Context, a *Admission) error

	// Active returns the patient's open episode, or ErrNoActiveAdmission.
	Active(ctx context.Context, patientID uuid.UUID) (*Admission, error)

	// ListByPatient returns all episodes for a patient, newest admission first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Admission, error)

	// Stats aggregates the episode count and the sum of stay_days over closed
	// episodes; the denormalization recompute is its only caller.
	Stats(ctx context.Context, patientID uuid.UUID) (total int, inpatientDays int, err error)

	// ListActiveByWard returns the open episodes currently placed in a ward,
	// ordered by admission time.
	ListActiveByWard(ctx context.Context, ward string) ([]*Admission, error)
}

// Copy of the fields occupancy views need, joined with patient identity at
// the service layer.
type WardOccupancy struct {
	Ward      string     `json:"ward"`
	Occupants []Occupant `json:"occupants"`
	AsOf      time.Time  `json:"as_of"`
}
