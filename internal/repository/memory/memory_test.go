package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
)

func seedPatient(t *testing.T, store *Store) *patient.Patient {
	t.Helper()

	p := &patient.Patient{
		FirstName:   "Ana",
		LastName:    "Silva",
		DateOfBirth: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		NationalID:  uuid.NewString(),
		Status:      patient.StatusOutpatient,
	}
	require.NoError(t, store.Stores().Patients.Create(context.Background(), p))
	return p
}

func TestDoRollsBackOnError(t *testing.T) {
	store := NewStore()
	p := seedPatient(t, store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		if err := st.Admissions.Create(ctx, &admission.Admission{
			PatientID:  p.ID,
			AdmittedAt: time.Now().UTC(),
			Type:       admission.TypeScheduled,
			IsActive:   true,
		}); err != nil {
			return err
		}
		p.Status = patient.StatusInpatient
		if err := st.Patients.Save(ctx, p); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Everything written inside the failed unit of work is gone.
	_, err = store.Stores().Admissions.Active(ctx, p.ID)
	assert.ErrorIs(t, err, admission.ErrNoActiveAdmission)

	got, err := store.Stores().Patients.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.StatusOutpatient, got.Status)
}

func TestDoCommitsOnSuccess(t *testing.T) {
	store := NewStore()
	p := seedPatient(t, store)
	ctx := context.Background()

	err := store.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Admissions.Create(ctx, &admission.Admission{
			PatientID:  p.ID,
			AdmittedAt: time.Now().UTC(),
			Type:       admission.TypeScheduled,
			IsActive:   true,
		})
	})
	require.NoError(t, err)

	a, err := store.Stores().Admissions.Active(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, a.IsActive)
}

func TestSecondActiveAdmissionRejected(t *testing.T) {
	store := NewStore()
	p := seedPatient(t, store)
	ctx := context.Background()
	repo := store.Stores().Admissions

	require.NoError(t, repo.Create(ctx, &admission.Admission{
		PatientID:  p.ID,
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeScheduled,
		IsActive:   true,
	}))

	err := repo.Create(ctx, &admission.Admission{
		PatientID:  p.ID,
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeScheduled,
		IsActive:   true,
	})
	assert.ErrorIs(t, err, admission.ErrAlreadyAdmitted)

	// A closed episode can always be inserted.
	dischargedAt := time.Now().UTC()
	assert.NoError(t, repo.Create(ctx, &admission.Admission{
		PatientID:    p.ID,
		AdmittedAt:   dischargedAt.Add(-time.Hour),
		DischargedAt: &dischargedAt,
		Type:         admission.TypeScheduled,
	}))
}

func TestSecondCurrentRecordEntryRejected(t *testing.T) {
	store := NewStore()
	p := seedPatient(t, store)
	ctx := context.Background()
	repo := store.Stores().Records

	require.NoError(t, repo.Create(ctx, &record.Entry{
		PatientID:   p.ID,
		Value:       "A100",
		IsCurrent:   true,
		EffectiveAt: time.Now().UTC(),
	}))

	err := repo.Create(ctx, &record.Entry{
		PatientID:   p.ID,
		Value:       "A200",
		IsCurrent:   true,
		EffectiveAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, record.ErrDuplicateActive)
}

func TestClearCurrentFlipsEntry(t *testing.T) {
	store := NewStore()
	p := seedPatient(t, store)
	ctx := context.Background()
	repo := store.Stores().Records

	// Nothing current yet.
	flipped, err := repo.ClearCurrent(ctx, p.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, flipped)

	require.NoError(t, repo.Create(ctx, &record.Entry{
		PatientID:   p.ID,
		Value:       "A100",
		IsCurrent:   true,
		EffectiveAt: time.Now().UTC(),
	}))

	flipped, err = repo.ClearCurrent(ctx, p.ID, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, flipped)
	assert.Equal(t, "A100", flipped.Value)

	_, err = repo.Current(ctx, p.ID)
	assert.ErrorIs(t, err, record.ErrEntryNotFound)
}
