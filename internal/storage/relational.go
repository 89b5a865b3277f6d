package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brightpath/learning-core/internal/logger"
)

// Record is the single relational row shape: one logical key per row, the
// entity serialized into a jsonb column. Soft deletion and status filtering
// happen at the repository layer inside the serialized value, so the row
// itself is only ever upserted or hard-deleted.
type Record struct {
	Key       string         `gorm:"primaryKey;size:512"`
	Owner     string         `gorm:"index"`
	Value     datatypes.JSON `gorm:"column:value"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (Record) TableName() string { return "record" }

// RelationalConfig selects the SQL medium. PostgresDSN wins when both are
// set; SQLitePath covers single-node deployments and tests.
type RelationalConfig struct {
	PostgresDSN string
	SQLitePath  string
}

// RelationalBackend persists records through GORM against Postgres or
// SQLite.
type RelationalBackend struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationalBackend(baseLog *logger.Logger, cfg RelationalConfig) (*RelationalBackend, error) {
	backendLog := baseLog.With("backend", "relational")

	var dialector gorm.Dialector
	switch {
	case cfg.PostgresDSN != "":
		dialector = postgres.Open(cfg.PostgresDSN)
	case cfg.SQLitePath != "":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("relational backend requires a postgres DSN or sqlite path")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open relational store: %w", err)
	}
	return NewRelationalBackendWithDB(backendLog, db)
}

// NewRelationalBackendWithDB wraps an already opened GORM handle. Tests use
// this with an in-memory SQLite database.
func NewRelationalBackendWithDB(log *logger.Logger, db *gorm.DB) (*RelationalBackend, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate record table: %w", err)
	}
	return &RelationalBackend{db: db, log: log}, nil
}

func (r *RelationalBackend) Name() string { return "relational" }

func (r *RelationalBackend) Save(ctx context.Context, key string, value []byte, opts Options) error {
	now := time.Now()
	rec := Record{
		Key:       key,
		Owner:     opts.Owner,
		Value:     datatypes.JSON(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner", "value", "updated_at"}),
		}).
		Create(&rec).Error
	return wrapErr("relational.save", err)
}

func (r *RelationalBackend) Load(ctx context.Context, key string, _ Options) ([]byte, bool, error) {
	var rec Record
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapErr("relational.load", err)
	}
	return []byte(rec.Value), true, nil
}

func (r *RelationalBackend) Delete(ctx context.Context, key string, _ Options) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&Record{}).Error
	return wrapErr("relational.delete", err)
}

// List returns values under the prefix in ascending key order, which gives
// log reads their append order without an extra sort in most cases.
func (r *RelationalBackend) List(ctx context.Context, prefix string, opts Options) ([][]byte, error) {
	// The explicit ESCAPE clause matters: Postgres defaults to backslash
	// escaping in LIKE, SQLite does not, and owner ids routinely contain
	// underscores.
	q := r.db.WithContext(ctx).
		Model(&Record{}).
		Where(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("key ASC")
	if opts.Owner != "" {
		q = q.Where("owner = ?", opts.Owner)
	}
	var recs []Record
	if err := q.Find(&recs).Error; err != nil {
		return nil, wrapErr("relational.list", err)
	}
	out := make([][]byte, 0, len(recs))
	for _, rec := range recs {
		out = append(out, []byte(rec.Value))
	}
	return out, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
