package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carelane/carelane/internal/config"
	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/domain/admission"
	"github.com/carelane/carelane/internal/domain/patient"
	"github.com/carelane/carelane/internal/domain/record"
	"github.com/carelane/carelane/internal/domain/timeline"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
		// Surfaces unique-index violations as gorm.ErrDuplicatedKey so the
		// repositories can map them to domain conflicts.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN(),
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&patient.Patient{},
		&record.Entry{},
		&admission.Admission{},
		&timeline.Event{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// createIndexes adds the constraints AutoMigrate cannot express. The two
// partial unique indexes are the storage-level guard behind the "one
// active admission, one current record number" invariants: a concurrent
// writer that slips past the application check fails here instead of
// silently creating a second row.
func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		{
			name:  "uq_admissions_one_active",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS uq_admissions_one_active ON clinical.admissions (patient_id) WHERE is_active`,
		},
		{
			name:  "uq_record_numbers_one_current",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS uq_record_numbers_one_current ON clinical.record_numbers (patient_id) WHERE is_current`,
		},
		{
			name:  "idx_admissions_ward_active",
			query: `CREATE INDEX IF NOT EXISTS idx_admissions_ward_active ON clinical.admissions (ward, admitted_at) WHERE is_active`,
		},
		{
			name:  "idx_timeline_patient_order",
			query: `CREATE INDEX IF NOT EXISTS idx_timeline_patient_order ON audit.timeline (patient_id, occurred_at DESC, seq DESC)`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
