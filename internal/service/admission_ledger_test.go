package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/timeline"
)

func TestAdmitDischargeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	admittedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	a, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
		AdmittedAt: admittedAt,
		Type:       admission.TypeScheduled,
		Location:   admission.Location{Ward: "cardiology", Bed: "C-1"},
		Diagnosis:  "observation",
	}, env.actor, "scheduled admission")
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Nil(t, a.StayHours)

	p = env.reload(t, p.ID)
	assert.Equal(t, patient.StatusInpatient, p.Status)
	require.NotNil(t, p.CurrentAdmissionID)
	assert.Equal(t, a.ID, *p.CurrentAdmissionID)
	assert.Equal(t, 1, p.TotalAdmissions)
	assert.Equal(t, 0, p.TotalInpatientDays)

	closed, err := env.admissions.Discharge(ctx, p.ID, admission.DischargeCommand{
		DischargedAt: admittedAt.Add(72 * time.Hour),
		Type:         admission.DischargeMedical,
		Diagnosis:    "recovered",
	}, env.actor, "medical discharge")
	require.NoError(t, err)

	require.NotNil(t, closed.StayHours)
	require.NotNil(t, closed.StayDays)
	assert.Equal(t, 72, *closed.StayHours)
	assert.Equal(t, 3, *closed.StayDays)
	assert.False(t, closed.IsActive)

	p = env.reload(t, p.ID)
	assert.Equal(t, patient.StatusDischarged, p.Status)
	assert.Nil(t, p.CurrentAdmissionID)
	assert.Equal(t, 1, p.TotalAdmissions)
	assert.Equal(t, 3, p.TotalInpatientDays)
}

func TestAdmitWhileAdmittedConflicts(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	cmd := admission.AdmitCommand{
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeScheduled,
		Location:   admission.Location{Ward: "general"},
	}
	_, err := env.admissions.Admit(ctx, p.ID, cmd, env.actor, "")
	require.NoError(t, err)

	_, err = env.admissions.Admit(ctx, p.ID, cmd, env.actor, "")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	require.True(t, errors.Is(err, admission.ErrAlreadyAdmitted))

	p = env.reload(t, p.ID)
	assert.Equal(t, patient.StatusInpatient, p.Status)
	history, err := env.admissions.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDischargeWithoutActiveAdmission(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)

	_, err := env.admissions.Discharge(context.Background(), p.ID, admission.DischargeCommand{
		DischargedAt: time.Now().UTC(),
		Type:         admission.DischargeMedical,
	}, env.actor, "")

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, errors.Is(err, admission.ErrNoActiveAdmission))

	p = env.reload(t, p.ID)
	assert.Equal(t, patient.StatusOutpatient, p.Status)
}

func TestDischargeBeforeAdmissionRejected(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	admittedAt := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	_, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
		AdmittedAt: admittedAt,
		Type:       admission.TypeScheduled,
	}, env.actor, "")
	require.NoError(t, err)

	_, err = env.admissions.Discharge(ctx, p.ID, admission.DischargeCommand{
		DischargedAt: admittedAt.Add(-time.Hour),
		Type:         admission.DischargeMedical,
	}, env.actor, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Rolled back: episode still open, status unchanged.
	active, err := env.admissions.Active(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive)
	assert.Equal(t, patient.StatusInpatient, env.reload(t, p.ID).Status)
}

func TestDischargeRequiresType(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	_, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeScheduled,
	}, env.actor, "")
	require.NoError(t, err)

	_, err = env.admissions.Discharge(ctx, p.ID, admission.DischargeCommand{
		DischargedAt: time.Now().UTC(),
	}, env.actor, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTransferOutMarksTransferred(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	admittedAt := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
		AdmittedAt: admittedAt,
		Type:       admission.TypeEmergency,
	}, env.actor, "")
	require.NoError(t, err)
	assert.Equal(t, patient.StatusEmergency, env.reload(t, p.ID).Status)

	closed, err := env.admissions.TransferOut(ctx, p.ID, admission.DischargeCommand{
		DischargedAt: admittedAt.Add(6 * time.Hour),
	}, env.actor, "referred to tertiary care")
	require.NoError(t, err)

	assert.Equal(t, admission.DischargeTransferOut, closed.DischargeType)
	assert.Equal(t, patient.StatusTransferred, env.reload(t, p.ID).Status)
}

func TestRelocateKeepsEpisodeOpen(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	_, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeScheduled,
		Location:   admission.Location{Ward: "general", Bed: "G-4"},
	}, env.actor, "")
	require.NoError(t, err)

	moved, err := env.admissions.Relocate(ctx, p.ID, admission.Location{Ward: "icu", Bed: "I-2"}, env.actor)
	require.NoError(t, err)
	assert.True(t, moved.IsActive)
	assert.Equal(t, "icu", moved.Ward)
	assert.Equal(t, "I-2", moved.Bed)

	events, err := env.timeline.Query(ctx, p.ID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, timeline.KindTransferred, events[0].Kind)
	assert.Equal(t, "general", events[0].Payload["from_ward"])
	assert.Equal(t, "icu", events[0].Payload["to_ward"])
}

func TestRelocateWithoutActiveAdmission(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)

	_, err := env.admissions.Relocate(context.Background(), p.ID, admission.Location{Ward: "icu"}, env.actor)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, errors.Is(err, admission.ErrNoActiveAdmission))
}

func TestCurrentDurationOfOpenEpisode(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	admittedAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
		AdmittedAt: admittedAt,
		Type:       admission.TypeScheduled,
	}, env.actor, "")
	require.NoError(t, err)

	hours, days, err := env.admissions.CurrentDuration(ctx, p.ID, admittedAt.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 30, hours)
	assert.Equal(t, 1, days)
}

func TestConcurrentAdmitsOnlyOneSucceeds(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	const workers = 8
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
				AdmittedAt: time.Now().UTC(),
				Type:       admission.TypeScheduled,
			}, env.actor, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	history, err := env.admissions.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, env.reload(t, p.ID).TotalAdmissions)
}

func TestOccupancyTracksActiveEpisodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p1 := env.registerPatient(t)
	p2 := env.registerPatient(t)

	_, err := env.admissions.Admit(ctx, p1.ID, admission.AdmitCommand{
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeScheduled,
		Location:   admission.Location{Ward: "icu", Bed: "I-1"},
	}, env.actor, "")
	require.NoError(t, err)
	_, err = env.admissions.Admit(ctx, p2.ID, admission.AdmitCommand{
		AdmittedAt: time.Now().UTC(),
		Type:       admission.TypeEmergency,
		Location:   admission.Location{Ward: "icu", Bed: "I-2"},
	}, env.actor, "")
	require.NoError(t, err)

	occ, err := env.admissions.Occupancy(ctx, "icu")
	require.NoError(t, err)
	assert.Len(t, occ.Occupants, 2)

	_, err = env.admissions.Discharge(ctx, p1.ID, admission.DischargeCommand{
		DischargedAt: time.Now().UTC(),
		Type:         admission.DischargeMedical,
	}, env.actor, "")
	require.NoError(t, err)

	occ, err = env.admissions.Occupancy(ctx, "icu")
	require.NoError(t, err)
	require.Len(t, occ.Occupants, 1)
	assert.Equal(t, p2.ID, occ.Occupants[0].PatientID)
}

func TestTotalsAccumulateAcrossEpisodes(t *testing.T) {
	env := newTestEnv(t)
	p := env.registerPatient(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	stays := []struct {
		admit time.Duration
		stay  time.Duration
	}{
		{0, 48 * time.Hour},
		{30 * 24 * time.Hour, 72 * time.Hour},
		{60 * 24 * time.Hour, 24 * time.Hour},
	}
	for _, s := range stays {
		admittedAt := base.Add(s.admit)
		_, err := env.admissions.Admit(ctx, p.ID, admission.AdmitCommand{
			AdmittedAt: admittedAt,
			Type:       admission.TypeReadmission,
		}, env.actor, "")
		require.NoError(t, err)
		_, err = env.admissions.Discharge(ctx, p.ID, admission.DischargeCommand{
			DischargedAt: admittedAt.Add(s.stay),
			Type:         admission.DischargeMedical,
		}, env.actor, "")
		require.NoError(t, err)
	}

	p = env.reload(t, p.ID)
	assert.Equal(t, 3, p.TotalAdmissions)
	assert.Equal(t, 6, p.TotalInpatientDays)

	summary, err := env.patients.GetSummary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalAdmissions)
	assert.Equal(t, 6, summary.TotalInpatientDays)
}
