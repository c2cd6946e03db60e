package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is intentionally append-and-query only.
type Repository interface {
	// Append inserts an event. It fails only on storage errors.
	Append(ctx context.Context, e *Event) error

	// ListByPatient returns a patient's events ordered by
	// (occurred_at, seq) descending. A non-nil since filters to events at
	// or after that instant.
	ListByPatient(ctx context.Context, patientID uuid.UUID, since *time.Time) ([]*Event, error)
}
