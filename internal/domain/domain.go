package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/internal/domain/timeline"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist:
		return true
	}
	return false
}

// Actor identifies who performed a lifecycle operation. Every ledger write
// and timeline event records one.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName     string `gorm:"column:last_name;type:varchar(100);not null"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index"`

	IsActive          bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount  int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil       *time.Time `gorm:"column:locked_until"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	PasswordChangedAt time.Time  `gorm:"column:password_changed_at"`
}

func (User) TableName() string {
	return "auth.users"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID uuid.UUID `json:"sub"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

// Stores bundles every repository bound to one transaction. A UnitOfWork
// hands a Stores to the callback; writes through it either all commit or
// all roll back.
type Stores struct {
	Patients   patient.Repository
	Records    record.Repository
	Admissions admission.Repository
	Timeline   timeline.Repository
}

// UnitOfWork runs fn inside a single storage transaction. Lifecycle
// operations depend on this to keep the invariant check, ledger write,
// denormalization recompute and timeline append atomic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, st Stores) error) error
}
