package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain/timeline"
)

type timelineRepo struct {
	s    *Store
	inTx bool
}

func (r *timelineRepo) Append(ctx context.Context, e *timeline.Event) error {
	defer r.s.lock(r.inTx)()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.s.seq++
	e.Seq = r.s.seq
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r *timelineRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, since *time.Time) ([]*timeline.Event, error) {
	defer r.s.lock(r.inTx)()

	var events []*timeline.Event
	for _, e := range r.s.events {
		if e.PatientID != patientID {
			continue
		}
		if since != nil && e.OccurredAt.Before(*since) {
			continue
		}
		cp := e
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].Seq > events[j].Seq
		}
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})
	return events, nil
}
