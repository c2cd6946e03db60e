package timeline

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRecordChanged Kind = "record_changed"
	KindAdmitted      Kind = "admitted"
	KindDischarged    Kind = "discharged"
	KindStatusChanged Kind = "status_changed"
	KindTransferred   Kind = "transferred"
	KindDeathDeclared Kind = "death_declared"
	KindTagAdded      Kind = "tag_added"
	KindTagRemoved    Kind = "tag_removed"
)

// Event is one immutable entry in a patient's audit timeline. Events are
// append-only: there is no update or delete path anywhere in the codebase,
// and the repository exposes none. Seq breaks ordering ties between events
// sharing a timestamp.
type Event struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Seq int64     `gorm:"column:seq;autoIncrement;uniqueIndex"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index"`
	PatientID  uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index;constraint:OnDelete:CASCADE"`

	Kind Kind `gorm:"column:kind;type:varchar(30);not null;index"`

	ActorID   uuid.UUID `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole string    `gorm:"column:actor_role;type:varchar(30)"`

	Payload map[string]any `gorm:"column:payload;type:jsonb;serializer:json"`
}

func (Event) TableName() string {
	return "audit.timeline"
}

// Payload constructors keep the kind-specific shapes in one place so that
// readers of the timeline can rely on field names staying stable.

func RecordChangedPayload(previous, next, reason string) map[string]any {
	return map[string]any{
		"previous_value": previous,
		"new_value":      next,
		"reason":         reason,
	}
}

func AdmittedPayload(admissionID uuid.UUID, admissionType, ward, bed, diagnosis string) map[string]any {
	return map[string]any{
		"admission_id": admissionID.String(),
		"type":         admissionType,
		"ward":         ward,
		"bed":          bed,
		"diagnosis":    diagnosis,
	}
}

func DischargedPayload(admissionID uuid.UUID, dischargeType, diagnosis string, stayHours, stayDays int) map[string]any {
	return map[string]any{
		"admission_id": admissionID.String(),
		"type":         dischargeType,
		"diagnosis":    diagnosis,
		"stay_hours":   stayHours,
		"stay_days":    stayDays,
	}
}

func TransferredPayload(admissionID uuid.UUID, fromWard, fromBed, toWard, toBed string) map[string]any {
	return map[string]any{
		"admission_id": admissionID.String(),
		"from_ward":    fromWard,
		"from_bed":     fromBed,
		"to_ward":      toWard,
		"to_bed":       toBed,
	}
}

func StatusChangedPayload(previous, next, reason string) map[string]any {
	return map[string]any{
		"previous_status": previous,
		"new_status":      next,
		"reason":          reason,
	}
}

func DeathDeclaredPayload(declaredAt time.Time, reason string) map[string]any {
	return map[string]any{
		"declared_at": declaredAt.UTC().Format(time.RFC3339),
		"reason":      reason,
	}
}
