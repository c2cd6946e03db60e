package admission

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type AdmissionType string

const (
	TypeEmergency   AdmissionType = "emergency"
	TypeScheduled   AdmissionType = "scheduled"
	TypeTransfer    AdmissionType = "transfer"
	TypeReadmission AdmissionType = "readmission"
)

func (t AdmissionType) IsValid() bool {
	switch t {
	case TypeEmergency, TypeScheduled, TypeTransfer, TypeReadmission:
		return true
	}
	return false
}

type DischargeType string

const (
	DischargeMedical        DischargeType = "medical"
	DischargeAdministrative DischargeType = "administrative"
	DischargeTransferOut    DischargeType = "transfer_out"
	DischargeEvasion        DischargeType = "evasion"
	DischargeDeath          DischargeType = "death"
	DischargeRequest        DischargeType = "request"
)

func (t DischargeType) IsValid() bool {
	switch t {
	case DischargeMedical, DischargeAdministrative, DischargeTransferOut,
		DischargeEvasion, DischargeDeath, DischargeRequest:
		return true
	}
	return false
}

// Location is a ward/bed pair as free-form hospital identifiers.
type Location struct {
	Ward string `json:"ward"`
	Bed  string `json:"bed"`
}

// Admission is one admission/discharge episode. Episodes are created by the
// admission ledger and closed exactly once; they are never deleted except by
// cascading patient deletion. StayHours and StayDays are derived, recomputed
// on every close, and nil while the episode is open.
type Admission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index;constraint:OnDelete:CASCADE"`

	AdmittedAt time.Time     `gorm:"column:admitted_at;not null;index"`
	Type       AdmissionType `gorm:"column:type;type:varchar(20);not null"`

	DischargedAt  *time.Time    `gorm:"column:discharged_at"`
	DischargeType DischargeType `gorm:"column:discharge_type;type:varchar(20)"`

	Ward      string `gorm:"column:ward;type:varchar(50);index"`
	Bed       string `gorm:"column:bed;type:varchar(50)"`
	FinalWard string `gorm:"column:final_ward;type:varchar(50)"`
	FinalBed  string `gorm:"column:final_bed;type:varchar(50)"`

	AdmissionDiagnosis string `gorm:"column:admission_diagnosis;type:text"`
	DischargeDiagnosis string `gorm:"column:discharge_diagnosis;type:text"`

	StayHours *int `gorm:"column:stay_hours"`
	StayDays  *int `gorm:"column:stay_days"`

	// Backed by a partial unique index: at most one active episode per patient.
	IsActive bool `gorm:"column:is_active;not null;default:false;index"`

	CreatedBy    uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`
	DischargedBy *uuid.UUID `gorm:"column:discharged_by;type:uuid"`
}

func (Admission) TableName() string {
	return "clinical.admissions"
}

// StayDurations converts an episode length into whole hours and days.
// Hours round to the nearest whole hour; days truncate, matching whole-day
// billing and reporting conventions. Both ledgers and reports depend on
// these exact semantics for audit comparability.
func StayDurations(admittedAt, dischargedAt time.Time) (hours, days int) {
	d := dischargedAt.Sub(admittedAt)
	hours = int(math.Round(d.Hours()))
	days = int(math.Floor(d.Hours() / 24))
	return hours, days
}

// CurrentDuration is the live length of a still-open episode, computed on
// read and never persisted while active.
func (a *Admission) CurrentDuration(now time.Time) (hours, days int) {
	end := now
	if a.DischargedAt != nil {
		end = *a.DischargedAt
	}
	return StayDurations(a.AdmittedAt, end)
}

// Close marks the episode discharged and recomputes the derived durations.
// Validation (ordering, discharge type) happens in the ledger before this
// is called.
func (a *Admission) Close(dischargedAt time.Time, dischargeType DischargeType, diagnosis string, final *Location, by uuid.UUID) {
	a.DischargedAt = &dischargedAt
	a.DischargeType = dischargeType
	a.DischargeDiagnosis = diagnosis
	if final != nil {
		a.FinalWard = final.Ward
		a.FinalBed = final.Bed
	} else {
		a.FinalWard = a.Ward
		a.FinalBed = a.Bed
	}
	hours, days := StayDurations(a.AdmittedAt, dischargedAt)
	a.StayHours = &hours
	a.StayDays = &days
	a.IsActive = false
	a.DischargedBy = &by
}

type AdmitCommand struct {
	AdmittedAt time.Time
	Type       AdmissionType
	Location   Location
	Diagnosis  string
}

type DischargeCommand struct {
	DischargedAt  time.Time
	Type          DischargeType
	Diagnosis     string
	FinalLocation *Location
}

// Occupant is one row of a ward occupancy view.
type Occupant struct {
	PatientID   uuid.UUID `json:"patient_id"`
	AdmissionID uuid.UUID `json:"admission_id"`
	Bed         string    `json:"bed"`
	AdmittedAt  time.Time `json:"admitted_at"`
}
