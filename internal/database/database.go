package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"estateinsight/server/config"
	"estateinsight/server/internal/models"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("a record already exists for this location and year")
)

type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDatabase opens the configured database, retrying the connection with
// exponential backoff until Database.ConnectTimeout elapses.
func NewDatabase(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.Database.LogQueries {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	bOff := backoff.NewExponentialBackOff()
	bOff.MaxElapsedTime = time.Duration(cfg.Database.ConnectTimeout) * time.Second

	var db *gorm.DB
	err = backoff.RetryNotify(
		func() error {
			var err error
			db, err = gorm.Open(dialector, gormCfg)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return backoff.Permanent(err)
			}
			return sqlDB.Ping()
		},
		bOff,
		func(err error, d time.Duration) {
			logger.WithError(err).Warnf("Database connection failed, retrying in %s", d)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Driver == "" || cfg.Database.Driver == "sqlite" {
		// sqlite allows a single writer; serialize access through one connection
		sqlDB, _ := db.DB()
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db, logger), nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.Database.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Database.Path), nil
	case "postgres":
		if cfg.Database.DSN == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		return postgres.Open(cfg.Database.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// New wraps an open gorm connection
func New(db *gorm.DB, logger *logrus.Logger) *Database {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Database{db: db, logger: logger}
}

// NewTestDB opens an in-memory sqlite database. The pool is limited to one
// connection because every sqlite memory connection is a separate database.
func NewTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// Ping checks that the database is reachable
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindRecords returns the records matching the filter ordered by id.
func (d *Database) FindRecords(ctx context.Context, filter models.RecordFilter) ([]models.Record, error) {
	query := d.db.WithContext(ctx).Model(&models.Record{})
	if len(filter.Locations) > 0 {
		query = query.Where("final_location IN ?", filter.Locations)
	}
	if len(filter.Years) > 0 {
		query = query.Where("year IN ?", filter.Years)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	records := []models.Record{}
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

func (d *Database) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Record{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// GetRecord returns ErrRecordNotFound when no record has the given id
func (d *Database) GetRecord(ctx context.Context, id uint) (*models.Record, error) {
	var record models.Record
	err := d.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

// UpsertRecord creates the record or overwrites the one sharing its
// location and year. The record is reloaded so its ID is the stored one.
func (d *Database) UpsertRecord(ctx context.Context, record *models.Record) error {
	record.ID = 0
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "final_location"}, {Name: "year"}},
		UpdateAll: true,
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	var stored models.Record
	err = d.db.WithContext(ctx).
		Where("final_location = ? AND year = ?", record.FinalLocation, record.Year).
		First(&stored).Error
	if err != nil {
		return fmt.Errorf("failed to reload record: %w", err)
	}
	*record = stored
	return nil
}

// UpdateRecord replaces every attribute of the record with the given id
func (d *Database) UpdateRecord(ctx context.Context, id uint, record *models.Record) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Record
		err := tx.First(&existing, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		record.ID = id
		if err := tx.Save(record).Error; err != nil {
			if IsDuplicate(err) {
				return ErrDuplicateRecord
			}
			return fmt.Errorf("failed to update record: %w", err)
		}
		return nil
	})
}

// ReplaceAll deletes every record and runs fill inside the same transaction.
// It returns the number of deleted records.
func (d *Database) ReplaceAll(ctx context.Context, fill func(tx *gorm.DB) error) (int64, error) {
	var deleted int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Record{})
		if result.Error != nil {
			return fmt.Errorf("failed to clear records: %w", result.Error)
		}
		deleted = result.RowsAffected
		d.logger.WithField("deleted", deleted).Info("Cleared existing records")

		return fill(tx)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// IsDuplicate reports whether err is a unique constraint violation
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateRecord) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
