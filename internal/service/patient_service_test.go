package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/timeline"
)

func TestRegisterStartsAsOutpatient(t *testing.T) {
	env := newTestEnv(t)

	p := env.registerPatient(t)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, patient.StatusOutpatient, p.Status)
	assert.Equal(t, 0, p.TotalAdmissions)
	assert.Nil(t, p.CurrentAdmissionID)
}

func TestRegisterWithInitialRecordNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.patients.Register(ctx, &patient.CreatePatientCommand{
		FirstName:    "Ana",
		LastName:     "Silva",
		DateOfBirth:  time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:       patient.GenderFemale,
		NationalID:   uuid.NewString(),
		RecordNumber: "A100",
		CreatedBy:    env.actor.ID,
	}, env.actor)
	require.NoError(t, err)

	// Registered atomically: cached value, ledger entry and audit event
	// all exist from the first read.
	assert.Equal(t, "A100", p.CurrentRecordNumber)

	current, err := env.records.CurrentRecordNumber(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A100", current)

	events, err := env.timeline.Query(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, timeline.KindRecordChanged, events[0].Kind)
}

func TestRegisterValidatesCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.patients.Register(context.Background(), &patient.CreatePatientCommand{
		FirstName:   "",
		LastName:    "Silva",
		DateOfBirth: time.Now().AddDate(1, 0, 0),
		Gender:      patient.Gender("robot"),
		NationalID:  "",
	}, env.actor)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "first_name is required")
	assert.Contains(t, verr.Fields, "date_of_birth cannot be in the future")
	assert.Contains(t, verr.Fields, "gender is invalid")
	assert.Contains(t, verr.Fields, "national_id is required")
}

func TestRegisterDuplicateNationalID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cmd := &patient.CreatePatientCommand{
		FirstName:   "Ana",
		LastName:    "Silva",
		DateOfBirth: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		NationalID:  "12345678900",
		CreatedBy:   env.actor.ID,
	}
	_, err := env.patients.Register(ctx, cmd, env.actor)
	require.NoError(t, err)

	_, err = env.patients.Register(ctx, cmd, env.actor)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.ErrorIs(t, err, patient.ErrPatientAlreadyExists)
}

func TestGetPatientNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.patients.GetPatient(context.Background(), uuid.New())
	require.ErrorIs(t, err, patient.ErrPatientNotFound)

	_, err = env.patients.GetSummary(context.Background(), uuid.New())
	require.ErrorIs(t, err, patient.ErrPatientNotFound)
}
