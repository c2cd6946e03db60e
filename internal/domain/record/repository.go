package record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new entry. Returns ErrDuplicateActive if the entry is
	// marked current and the patient already has a current one.
	Create(ctx context.Context, e *Entry) error

	// ClearCurrent flips the patient's current entry to non-current and
	// returns it, or (nil, nil) when the patient has no history yet.
	ClearCurrent(ctx context.Context, patientID uuid.UUID, updatedBy uuid.UUID) (*Entry, error)

	// Current returns the entry with is_current = true, or ErrEntryNotFound.
	Current(ctx context.Context, patientID uuid.UUID) (*Entry, error)

	// ListByPatient returns the full history, newest effective_at first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
}
