package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/repository/memory"
)

// testEnv wires every service against a shared in-memory store, the same
// way cmd/server wires them against postgres.
type testEnv struct {
	store      *memory.Store
	patients   *PatientService
	records    *RecordLedger
	admissions *AdmissionLedger
	status     *StatusMachine
	timeline   *Timeline
	actor      domain.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	stores := store.Stores()
	log := zap.NewNop()

	return &testEnv{
		store:      store,
		patients:   NewPatientService(store, stores, nil, log),
		records:    NewRecordLedger(store, stores, nil, log),
		admissions: NewAdmissionLedger(store, stores, nil, log),
		status:     NewStatusMachine(store, stores, nil, log),
		timeline:   NewTimeline(stores, log),
		actor:      domain.Actor{ID: uuid.New(), Role: domain.RoleDoctor},
	}
}

func (e *testEnv) registerPatient(t *testing.T) *patient.Patient {
	t.Helper()

	p, err := e.patients.Register(context.Background(), &patient.CreatePatientCommand{
		FirstName:   "Ana",
		LastName:    "Silva",
		DateOfBirth: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		NationalID:  uuid.NewString(),
		CreatedBy:   e.actor.ID,
	}, e.actor)
	require.NoError(t, err)
	return p
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *patient.Patient {
	t.Helper()

	p, err := e.patients.GetPatient(context.Background(), id)
	require.NoError(t, err)
	return p
}
