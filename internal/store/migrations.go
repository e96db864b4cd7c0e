package store

import (
	"fmt"

	"gorm.io/gorm"
)

// Migration is a named, idempotent schema step. Steps run in order on
// every startup; each one must be safe to re-run against a database
// that already applied it.
type Migration struct {
	Name string
	Run  func(db *gorm.DB) error
}

func migrations() []Migration {
	return []Migration{
		{
			Name: "create_daily_records",
			Run: func(db *gorm.DB) error {
				return db.Exec(`CREATE TABLE IF NOT EXISTS daily_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					date TEXT NOT NULL,
					time_of_day TEXT NOT NULL,
					pain_level INTEGER DEFAULT 0,
					dizziness_level INTEGER DEFAULT 0,
					stomach_level INTEGER DEFAULT 0,
					throat_level INTEGER DEFAULT 0,
					dry_eye_level INTEGER DEFAULT 0,
					fatigue_level INTEGER DEFAULT 0,
					sleep_note TEXT DEFAULT '',
					daily_activity_note TEXT DEFAULT '',
					pain_increasing_activities TEXT DEFAULT '',
					pain_decreasing_activities TEXT DEFAULT '',
					dizziness_increasing_activities TEXT DEFAULT '',
					dizziness_decreasing_activities TEXT DEFAULT '',
					medication_used INTEGER DEFAULT 0,
					medication_note TEXT DEFAULT '',
					notes TEXT DEFAULT '{}',
					triggers TEXT DEFAULT '{}',
					interventions TEXT DEFAULT '{}',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`).Error
			},
		},
		{
			Name: "add_mood_level_to_daily_records",
			Run:  addColumn(&ObservationRow{}, "mood_level", "ALTER TABLE daily_records ADD COLUMN mood_level INTEGER DEFAULT 0"),
		},
		{
			Name: "add_body_feeling_note_to_daily_records",
			Run:  addColumn(&ObservationRow{}, "body_feeling_note", "ALTER TABLE daily_records ADD COLUMN body_feeling_note TEXT DEFAULT ''"),
		},
		{
			Name: "create_daily_summaries",
			Run: func(db *gorm.DB) error {
				return db.Exec(`CREATE TABLE IF NOT EXISTS daily_summaries (
					date TEXT PRIMARY KEY,
					stomach_level INTEGER DEFAULT 0,
					throat_level INTEGER DEFAULT 0,
					dry_eye_level INTEGER DEFAULT 0,
					fatigue_level INTEGER DEFAULT 0,
					sleep_note TEXT DEFAULT '',
					daily_activity_note TEXT DEFAULT '',
					pain_increasing_activities TEXT DEFAULT '',
					pain_decreasing_activities TEXT DEFAULT '',
					dizziness_increasing_activities TEXT DEFAULT '',
					dizziness_decreasing_activities TEXT DEFAULT '',
					medication_used INTEGER DEFAULT 0,
					medication_note TEXT DEFAULT '',
					notes TEXT DEFAULT '{}',
					triggers TEXT DEFAULT '{}',
					interventions TEXT DEFAULT '{}',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`).Error
			},
		},
		{
			Name: "create_exercise_config",
			Run: func(db *gorm.DB) error {
				return db.Exec(`CREATE TABLE IF NOT EXISTS exercise_config (
					key TEXT PRIMARY KEY,
					value TEXT DEFAULT ''
				)`).Error
			},
		},
		{
			Name: "create_exercise_logs",
			Run: func(db *gorm.DB) error {
				return db.Exec(`CREATE TABLE IF NOT EXISTS exercise_logs (
					date TEXT PRIMARY KEY,
					data TEXT DEFAULT '{}',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`).Error
			},
		},
		{
			Name: "index_daily_records_date_time",
			Run: func(db *gorm.DB) error {
				return db.Exec(`CREATE INDEX IF NOT EXISTS idx_daily_records_date_time
					ON daily_records (date, time_of_day)`).Error
			},
		},
	}
}

func addColumn(model interface{}, column, stmt string) func(db *gorm.DB) error {
	return func(db *gorm.DB) error {
		if db.Migrator().HasColumn(model, column) {
			return nil
		}
		return db.Exec(stmt).Error
	}
}

// Migrate applies all schema steps in order.
func Migrate(db *gorm.DB) error {
	for _, m := range migrations() {
		if err := m.Run(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	return nil
}
