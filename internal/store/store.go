package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/hanyuejun/health-recorder/internal/config"
)

// Store provides access to the SQLite journal database
type Store struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	logger *zap.Logger
}

// New creates a Store from configuration
func New(cfg *config.Config, log *zap.Logger) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "health_records.db")
	}
	return Open(sqlitePath, log)
}

// Open opens (and migrates) the database at the given path
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Open SQLite with optimizations
	sqliteDB, err := sql.Open("sqlite", path+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	log.Debug("database opened", zap.String("path", path))

	return &Store{db: db, sqlDB: sqliteDB, logger: log}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ==================== Observation Methods ====================

// GetObservation retrieves the entry for an exact date and time-of-day
// label. Returns (nil, nil) when no row matches.
func (s *Store) GetObservation(date, timeOfDay string) (*ObservationRow, error) {
	var row ObservationRow
	err := s.db.Where("date = ? AND time_of_day = ?", date, timeOfDay).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetObservationByID retrieves an entry by primary key
func (s *Store) GetObservationByID(id int64) (*ObservationRow, error) {
	var row ObservationRow
	err := s.db.Where("id = ?", id).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListObservations returns all entries, newest dates first
func (s *Store) ListObservations() ([]ObservationRow, error) {
	var rows []ObservationRow
	err := s.db.Order("date DESC, created_at DESC").Find(&rows).Error
	return rows, err
}

// ListObservationsInRange returns entries between two dates inclusive,
// oldest dates first
func (s *Store) ListObservationsInRange(start, end string) ([]ObservationRow, error) {
	var rows []ObservationRow
	err := s.db.Where("date >= ? AND date <= ?", start, end).
		Order("date ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

// CreateObservation inserts a new entry
func (s *Store) CreateObservation(row *ObservationRow) error {
	return s.db.Create(row).Error
}

// UpdateObservation updates an existing entry
func (s *Store) UpdateObservation(row *ObservationRow) error {
	return s.db.Save(row).Error
}

// DeleteObservation removes an entry by primary key. Returns the number
// of rows deleted so callers can distinguish a missing id.
func (s *Store) DeleteObservation(id int64) (int64, error) {
	res := s.db.Where("id = ?", id).Delete(&ObservationRow{})
	return res.RowsAffected, res.Error
}

// ==================== Daily Summary Methods ====================

// GetSummary retrieves the summary row for a date. Returns (nil, nil)
// when the date has no summary.
func (s *Store) GetSummary(date string) (*DailySummaryRow, error) {
	var row DailySummaryRow
	err := s.db.Where("date = ?", date).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSummaries retrieves summary rows for a set of dates in one query
func (s *Store) ListSummaries(dates []string) ([]DailySummaryRow, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var rows []DailySummaryRow
	err := s.db.Where("date IN ?", dates).Find(&rows).Error
	return rows, err
}

// UpsertSummary inserts or replaces the summary row for its date
func (s *Store) UpsertSummary(row *DailySummaryRow) error {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		UpdateAll: true,
	}).Create(row).Error
}

// ==================== Config Methods ====================

// GetConfigValue retrieves a config blob; found reports whether the
// key exists.
func (s *Store) GetConfigValue(key string) (value string, found bool, err error) {
	var entry ConfigEntry
	e := s.db.Where("key = ?", key).First(&entry).Error
	if e == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if e != nil {
		return "", false, e
	}
	return entry.Value, true, nil
}

// SetConfigValue inserts or replaces a config blob
func (s *Store) SetConfigValue(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&ConfigEntry{Key: key, Value: value}).Error
}

// ==================== Exercise Log Methods ====================

// GetExerciseLog retrieves the log row for a date. Returns (nil, nil)
// when the date has no log.
func (s *Store) GetExerciseLog(date string) (*ExerciseLogRow, error) {
	var row ExerciseLogRow
	err := s.db.Where("date = ?", date).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListExerciseLogs returns all log rows, newest dates first
func (s *Store) ListExerciseLogs() ([]ExerciseLogRow, error) {
	var rows []ExerciseLogRow
	err := s.db.Order("date DESC").Find(&rows).Error
	return rows, err
}

// SaveExerciseLog inserts or replaces the log row for its date. The
// timestamp is refreshed on every save.
func (s *Store) SaveExerciseLog(row *ExerciseLogRow) error {
	row.CreatedAt = time.Now()
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		UpdateAll: true,
	}).Create(row).Error
}

// DeleteExerciseLog removes the log row for a date. Returns the number
// of rows deleted.
func (s *Store) DeleteExerciseLog(date string) (int64, error) {
	res := s.db.Where("date = ?", date).Delete(&ExerciseLogRow{})
	return res.RowsAffected, res.Error
}
