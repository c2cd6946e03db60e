package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusOutpatient, StatusInpatient, true},
		{StatusOutpatient, StatusEmergency, true},
		{StatusOutpatient, StatusDeceased, true},
		{StatusOutpatient, StatusDischarged, false},
		{StatusOutpatient, StatusTransferred, false},

		{StatusInpatient, StatusDischarged, true},
		{StatusInpatient, StatusTransferred, true},
		{StatusInpatient, StatusDeceased, true},
		{StatusInpatient, StatusEmergency, false},
		{StatusInpatient, StatusOutpatient, false},

		{StatusEmergency, StatusDischarged, true},
		{StatusEmergency, StatusTransferred, true},
		{StatusEmergency, StatusDeceased, true},
		{StatusEmergency, StatusInpatient, false},

		{StatusDischarged, StatusInpatient, true},
		{StatusDischarged, StatusEmergency, true},
		{StatusDischarged, StatusOutpatient, true},
		{StatusDischarged, StatusDeceased, false},
		{StatusDischarged, StatusTransferred, false},

		{StatusTransferred, StatusInpatient, true},
		{StatusTransferred, StatusOutpatient, true},
		{StatusTransferred, StatusDeceased, false},

		{StatusDeceased, StatusOutpatient, false},
		{StatusDeceased, StatusInpatient, false},
		{StatusDeceased, StatusDeceased, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestStatusAdmitted(t *testing.T) {
	assert.True(t, StatusInpatient.Admitted())
	assert.True(t, StatusEmergency.Admitted())
	assert.False(t, StatusOutpatient.Admitted())
	assert.False(t, StatusDischarged.Admitted())
	assert.False(t, StatusDeceased.Admitted())
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusOutpatient.IsValid())
	assert.True(t, StatusDeceased.IsValid())
	assert.False(t, Status("admitted").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestPatientFullName(t *testing.T) {
	p := &Patient{FirstName: "Ana", LastName: "Silva"}
	assert.Equal(t, "Ana Silva", p.FullName())
}

func TestPatientAge(t *testing.T) {
	now := time.Now()
	p := &Patient{DateOfBirth: now.AddDate(-30, 0, -1)}
	assert.Equal(t, 30, p.Age())

	// Birthday later this year has not happened yet.
	p = &Patient{DateOfBirth: now.AddDate(-30, 0, 1)}
	assert.Equal(t, 29, p.Age())
}

func TestSummaryReflectsDenormalizedFields(t *testing.T) {
	p := &Patient{
		FirstName:           "Ana",
		LastName:            "Silva",
		Status:              StatusInpatient,
		CurrentRecordNumber: "A200",
		TotalAdmissions:     4,
		TotalInpatientDays:  11,
	}
	s := p.Summary()
	assert.Equal(t, "Ana Silva", s.FullName)
	assert.Equal(t, StatusInpatient, s.Status)
	assert.Equal(t, "A200", s.CurrentRecordNumber)
	assert.Equal(t, 4, s.TotalAdmissions)
	assert.Equal(t, 11, s.TotalInpatientDays)
}
