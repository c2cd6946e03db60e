// Package memory backs the repository interfaces with maps. It mirrors the
// postgres package closely enough for service-level tests: the unit of work
// serializes writers the way the patient row lock does, snapshots state so a
// failed callback rolls back, and the Create paths reject second-active /
// second-current rows the way the partial unique indexes do.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/internal/domain/timeline"
)

type Store struct {
	mu sync.Mutex

	patients   map[uuid.UUID]patient.Patient
	records    map[uuid.UUID]record.Entry
	admissions map[uuid.UUID]admission.Admission
	events     []timeline.Event
	seq        int64
}

func NewStore() *Store {
	return &Store{
		patients:   make(map[uuid.UUID]patient.Patient),
		records:    make(map[uuid.UUID]record.Entry),
		admissions: make(map[uuid.UUID]admission.Admission),
	}
}

// Stores returns autocommit-style repositories for reads outside a unit of
// work.
func (s *Store) Stores() domain.Stores {
	return s.stores(false)
}

func (s *Store) stores(inTx bool) domain.Stores {
	return domain.Stores{
		Patients:   &patientRepo{s: s, inTx: inTx},
		Records:    &recordRepo{s: s, inTx: inTx},
		Admissions: &admissionRepo{s: s, inTx: inTx},
		Timeline:   &timelineRepo{s: s, inTx: inTx},
	}
}

// Do serializes writers under one mutex and restores a snapshot when fn
// fails, which is the transactional behavior the services rely on.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, st domain.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, s.stores(true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	patients   map[uuid.UUID]patient.Patient
	records    map[uuid.UUID]record.Entry
	admissions map[uuid.UUID]admission.Admission
	events     []timeline.Event
	seq        int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		patients:   make(map[uuid.UUID]patient.Patient, len(s.patients)),
		records:    make(map[uuid.UUID]record.Entry, len(s.records)),
		admissions: make(map[uuid.UUID]admission.Admission, len(s.admissions)),
		events:     make([]timeline.Event, len(s.events)),
		seq:        s.seq,
	}
	for k, v := range s.patients {
		snap.patients[k] = v
	}
	for k, v := range s.records {
		snap.records[k] = v
	}
	for k, v := range s.admissions {
		snap.admissions[k] = v
	}
	copy(snap.events, s.events)
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.patients = snap.patients
	s.records = snap.records
	s.admissions = snap.admissions
	s.events = snap.events
	s.seq = snap.seq
}

// lock acquires the store mutex for repositories used outside a unit of
// work; inside one, Do already holds it.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
