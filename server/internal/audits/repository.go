package audits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/types"
)

// Open connects to Postgres. maxOpen caps the pool when positive.
func Open(dsn string, maxOpen int) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("audits: empty database dsn")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("audits: open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("audits: database handle: %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Repository reads audits and telemetry and saves test results.
type Repository struct {
	db *gorm.DB
}

var _ calc.TelemetrySource = (*Repository)(nil)

// NewRepository wraps an open database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the result tables. The audit and telemetry
// tables belong to the rig and are never migrated here.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&TestResult{}, &TaskResult{})
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Audit implements calc.TelemetrySource. A serial resolves to its most
// recent audit.
func (r *Repository) Audit(ctx context.Context, ref calc.AuditRef) (types.AuditInfo, error) {
	var a Audit
	q := r.db.WithContext(ctx)
	var err error
	switch {
	case ref.AuditID != "":
		id, perr := strconv.ParseInt(ref.AuditID, 10, 64)
		if perr != nil {
			return types.AuditInfo{}, fmt.Errorf("%s: %w", ref, calc.ErrAuditNotFound)
		}
		err = q.First(&a, "audit_id = ?", id).Error
	case ref.Serial != "":
		err = q.Where("serial = ?", ref.Serial).Order("audit_id DESC").First(&a).Error
	default:
		return types.AuditInfo{}, fmt.Errorf("%w: audit id or serial is required", calc.ErrInvalidRequest)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.AuditInfo{}, fmt.Errorf("%s: %w", ref, calc.ErrAuditNotFound)
	}
	if err != nil {
		return types.AuditInfo{}, fmt.Errorf("audits: lookup %s: %w", ref, err)
	}
	return auditInfo(a), nil
}

// Samples implements calc.TelemetrySource.
func (r *Repository) Samples(ctx context.Context, auditID string) ([]types.Sample, error) {
	id, err := strconv.ParseInt(auditID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", auditID, calc.ErrAuditNotFound)
	}

	var rows []SampleRow
	if err := r.db.WithContext(ctx).
		Where("audit_id = ?", id).
		Order("seconds ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audits: samples of %s: %w", auditID, err)
	}
	return toSamples(rows)
}

// Recent lists the latest audits, newest first. A non-empty serial filters.
func (r *Repository) Recent(ctx context.Context, serial string, limit int) ([]types.AuditInfo, error) {
	q := r.db.WithContext(ctx).Order("audit_id DESC").Limit(limit)
	if serial != "" {
		q = q.Where("serial = ?", serial)
	}
	var list []Audit
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("audits: list: %w", err)
	}
	out := make([]types.AuditInfo, len(list))
	for i, a := range list {
		out[i] = auditInfo(a)
	}
	return out, nil
}

// Saved describes a persisted submission.
type Saved struct {
	Target
	RunNo  int    `json:"run_no"`
	Rows   int    `json:"rows"`
	Result string `json:"result"`
}

// SaveTestResult stores every row of sub and one task result under the next
// run number of the target serial and task, all in one transaction.
func (r *Repository) SaveTestResult(ctx context.Context, sub Submission, defaultTask string) (Saved, error) {
	tgt, err := sub.Target(defaultTask)
	if err != nil {
		return Saved{}, err
	}

	var saved Saved
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runNo, err := nextRunNumber(tx, tgt.Serial, tgt.Task)
		if err != nil {
			return err
		}

		rows := sub.rows(tgt, runNo)
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert test results: %w", err)
			}
		}

		task := TaskResult{
			Part:   tgt.Part,
			Serial: tgt.Serial,
			Task:   tgt.Task,
			RunNo:  runNo,
			Result: sub.Overall(),
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("insert task result: %w", err)
		}

		saved = Saved{Target: tgt, RunNo: runNo, Rows: len(rows), Result: task.Result}
		return nil
	})
	if err != nil {
		return Saved{}, fmt.Errorf("audits: save %s/%s: %w", tgt.Serial, tgt.Task, err)
	}

	slog.Info("audits: test result saved",
		"part", saved.Part, "serial", saved.Serial, "task", saved.Task,
		"run_no", saved.RunNo, "result", saved.Result)
	return saved, nil
}

// nextRunNumber is one above the highest run saved for serial and task.
func nextRunNumber(tx *gorm.DB, serial, task string) (int, error) {
	var last int
	err := tx.Model(&TaskResult{}).
		Where("serial = ? AND task = ?", serial, task).
		Select("COALESCE(MAX(run_no), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("next run number: %w", err)
	}
	return last + 1, nil
}
