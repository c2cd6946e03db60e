package postgres

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/carelane/carelane/internal/domain"
)

// NewStores binds every repository to db. Bound to the base connection it
// serves autocommit reads; the unit of work rebinds it to a transaction.
func NewStores(db *gorm.DB) domain.Stores {
	return domain.Stores{
		Patients:   &PatientRepo{db: db},
		Records:    &RecordRepo{db: db},
		Admissions: &AdmissionRepo{db: db},
		Timeline:   &TimelineRepo{db: db},
	}
}

type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do runs fn inside a single database transaction. All repositories handed
// to fn share that transaction; an error rolls everything back, including
// the denormalized-field update and the timeline append.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, st domain.Stores) error) error {
	ctx, span := otel.Tracer("carelane/repository").Start(ctx, "uow.do")
	defer span.End()

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStores(tx))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
