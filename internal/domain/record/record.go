package record

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one assignment in a patient's hospital record-number history.
// Entries are append-only: assigning a new number inserts a new entry and
// flips the previous one to non-current within the same transaction. A
// partial unique index guarantees at most one current entry per patient.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index;constraint:OnDelete:CASCADE"`

	Value         string    `gorm:"column:value;type:varchar(50);not null"`
	IsCurrent     bool      `gorm:"column:is_current;not null;default:false;index"`
	PreviousValue string    `gorm:"column:previous_value;type:varchar(50)"`
	EffectiveAt   time.Time `gorm:"column:effective_at;not null;index"`
	Reason        string    `gorm:"column:reason;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	UpdatedBy uuid.UUID `gorm:"column:updated_by;type:uuid"`
}

func (Entry) TableName() string {
	return "clinical.record_numbers"
}

type AssignCommand struct {
	Value       string
	Reason      string
	EffectiveAt time.Time
}
