package store

import "time"

// ObservationRow is a per-date, per-time-slot symptom entry as stored
// in the daily_records table. The day-level columns (stomach level
// through medication note) predate the daily_summaries split and are
// kept so rows written under the old layout stay readable; the merge
// layer prefers the summary when one exists.
type ObservationRow struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Date      string `gorm:"column:date;not null" json:"date"`
	TimeOfDay string `gorm:"column:time_of_day;not null" json:"time_of_day"`

	PainLevel       int    `gorm:"column:pain_level" json:"pain_level"`
	DizzinessLevel  int    `gorm:"column:dizziness_level" json:"dizziness_level"`
	MoodLevel       int    `gorm:"column:mood_level" json:"mood_level"`
	BodyFeelingNote string `gorm:"column:body_feeling_note" json:"body_feeling_note"`

	StomachLevel                  int    `gorm:"column:stomach_level" json:"stomach_level"`
	ThroatLevel                   int    `gorm:"column:throat_level" json:"throat_level"`
	DryEyeLevel                   int    `gorm:"column:dry_eye_level" json:"dry_eye_level"`
	FatigueLevel                  int    `gorm:"column:fatigue_level" json:"fatigue_level"`
	SleepNote                     string `gorm:"column:sleep_note" json:"sleep_note"`
	DailyActivityNote             string `gorm:"column:daily_activity_note" json:"daily_activity_note"`
	PainIncreasingActivities      string `gorm:"column:pain_increasing_activities" json:"pain_increasing_activities"`
	PainDecreasingActivities      string `gorm:"column:pain_decreasing_activities" json:"pain_decreasing_activities"`
	DizzinessIncreasingActivities string `gorm:"column:dizziness_increasing_activities" json:"dizziness_increasing_activities"`
	DizzinessDecreasingActivities string `gorm:"column:dizziness_decreasing_activities" json:"dizziness_decreasing_activities"`
	MedicationUsed                int    `gorm:"column:medication_used" json:"medication_used"`
	MedicationNote                string `gorm:"column:medication_note" json:"medication_note"`

	// Serialized NoteMap blobs
	Notes         string `gorm:"column:notes" json:"notes"`
	Triggers      string `gorm:"column:triggers" json:"triggers"`
	Interventions string `gorm:"column:interventions" json:"interventions"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ObservationRow) TableName() string {
	return "daily_records"
}

// DailySummaryRow holds the once-per-day aggregate fields, one row per
// date, overlaid onto observations at read time.
type DailySummaryRow struct {
	Date string `gorm:"column:date;primaryKey" json:"date"`

	StomachLevel                  int    `gorm:"column:stomach_level" json:"stomach_level"`
	ThroatLevel                   int    `gorm:"column:throat_level" json:"throat_level"`
	DryEyeLevel                   int    `gorm:"column:dry_eye_level" json:"dry_eye_level"`
	FatigueLevel                  int    `gorm:"column:fatigue_level" json:"fatigue_level"`
	SleepNote                     string `gorm:"column:sleep_note" json:"sleep_note"`
	DailyActivityNote             string `gorm:"column:daily_activity_note" json:"daily_activity_note"`
	PainIncreasingActivities      string `gorm:"column:pain_increasing_activities" json:"pain_increasing_activities"`
	PainDecreasingActivities      string `gorm:"column:pain_decreasing_activities" json:"pain_decreasing_activities"`
	DizzinessIncreasingActivities string `gorm:"column:dizziness_increasing_activities" json:"dizziness_increasing_activities"`
	DizzinessDecreasingActivities string `gorm:"column:dizziness_decreasing_activities" json:"dizziness_decreasing_activities"`
	MedicationUsed                int    `gorm:"column:medication_used" json:"medication_used"`
	MedicationNote                string `gorm:"column:medication_note" json:"medication_note"`

	Notes         string `gorm:"column:notes" json:"notes"`
	Triggers      string `gorm:"column:triggers" json:"triggers"`
	Interventions string `gorm:"column:interventions" json:"interventions"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (DailySummaryRow) TableName() string {
	return "daily_summaries"
}

// ConfigEntry is a key/value row; the exercise list lives in a single
// JSON blob under a constant key rather than one row per exercise.
type ConfigEntry struct {
	Key   string `gorm:"column:key;primaryKey" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

func (ConfigEntry) TableName() string {
	return "exercise_config"
}

// ExerciseLogRow holds one day's exercise feedback as a JSON blob.
type ExerciseLogRow struct {
	Date      string    `gorm:"column:date;primaryKey" json:"date"`
	Data      string    `gorm:"column:data" json:"data"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ExerciseLogRow) TableName() string {
	return "exercise_logs"
}
