package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// Status is the lifecycle state of a patient. A newly registered patient
// with no admission history starts as Outpatient.
type Status string

const (
	StatusOutpatient  Status = "outpatient"
	StatusInpatient   Status = "inpatient"
	StatusEmergency   Status = "emergency"
	StatusDischarged  Status = "discharged"
	StatusTransferred Status = "transferred"
	StatusDeceased    Status = "deceased"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOutpatient, StatusInpatient, StatusEmergency,
		StatusDischarged, StatusTransferred, StatusDeceased:
		return true
	}
	return false
}

// Admitted reports whether the status implies an open admission episode.
func (s Status) Admitted() bool {
	return s == StatusInpatient || s == StatusEmergency
}

// State transition possibilities:
//
//	outpatient/discharged/transferred → inpatient | emergency  (opens an admission)
//	inpatient/emergency               → discharged             (closes the admission)
//	inpatient/emergency               → transferred            (closes it as transfer-out)
//	outpatient/inpatient/emergency    → deceased               (closes any open admission)
//	discharged/transferred            → outpatient             (bookkeeping, no side effect)
//
// deceased is terminal.
var allowedTransitions = map[Status][]Status{
	StatusOutpatient:  {StatusInpatient, StatusEmergency, StatusDeceased},
	StatusInpatient:   {StatusDischarged, StatusTransferred, StatusDeceased},
	StatusEmergency:   {StatusDischarged, StatusTransferred, StatusDeceased},
	StatusDischarged:  {StatusInpatient, StatusEmergency, StatusOutpatient},
	StatusTransferred: {StatusInpatient, StatusEmergency, StatusOutpatient},
	StatusDeceased:    {},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Patient is the aggregate root. CurrentRecordNumber, CurrentAdmissionID,
// TotalAdmissions and TotalInpatientDays are denormalized from the record
// and admission ledgers; they are recomputed inside every mutating
// transaction and must never be assigned by callers.
type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft delete

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(20);not null"`
	NationalID  string    `gorm:"column:national_id;type:varchar(50);uniqueIndex"`

	Status     Status     `gorm:"column:status;type:varchar(20);not null;default:'outpatient';index"`
	DeceasedAt *time.Time `gorm:"column:deceased_at"`

	// Derived cache, maintained by the lifecycle services only.
	CurrentRecordNumber string     `gorm:"column:current_record_number;type:varchar(50);index"`
	CurrentAdmissionID  *uuid.UUID `gorm:"column:current_admission_id;type:uuid"`
	TotalAdmissions     int        `gorm:"column:total_admissions;not null;default:0"`
	TotalInpatientDays  int        `gorm:"column:total_inpatient_days;not null;default:0"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) Age() int {
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

type CreatePatientCommand struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Gender      Gender
	NationalID  string

	// Optional hospital record number assigned at registration; routed
	// through the record ledger so history starts consistent.
	RecordNumber string

	CreatedBy uuid.UUID
}

// Summary is the O(1) read of the denormalized fields.
type Summary struct {
	PatientID           uuid.UUID  `json:"patient_id"`
	FullName            string     `json:"full_name"`
	Status              Status     `json:"status"`
	CurrentRecordNumber string     `json:"current_record_number"`
	CurrentAdmissionID  *uuid.UUID `json:"current_admission_id,omitempty"`
	TotalAdmissions     int        `json:"total_admissions"`
	TotalInpatientDays  int        `json:"total_inpatient_days"`
}

func (p *Patient) Summary() *Summary {
	return &Summary{
		PatientID:           p.ID,
		FullName:            p.FullName(),
		Status:              p.Status,
		CurrentRecordNumber: p.CurrentRecordNumber,
		CurrentAdmissionID:  p.CurrentAdmissionID,
		TotalAdmissions:     p.TotalAdmissions,
		TotalInpatientDays:  p.TotalInpatientDays,
	}
}
