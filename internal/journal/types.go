package journal

import (
	"encoding/json"
	"fmt"
)

// fallbackKey is where unstructured text lands when a stored blob
// cannot be decoded as a map.
const fallbackKey = "General"

// NoteMap holds free text keyed by symptom or category name.
type NoteMap map[string]string

// ParseNoteMap decodes a persisted JSON blob into a NoteMap. Legacy
// rows may hold plain text, double-encoded JSON, or non-string values;
// anything that cannot be decoded as a map is preserved under the
// fallback key instead of failing the read. recovered reports that the
// fallback path was taken.
func ParseNoteMap(raw string) (m NoteMap, recovered bool) {
	if raw == "" {
		return NoteMap{}, false
	}

	var strMap map[string]string
	if err := json.Unmarshal([]byte(raw), &strMap); err == nil {
		return NoteMap(strMap), false
	}

	var anyMap map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &anyMap); err == nil {
		m = make(NoteMap, len(anyMap))
		for k, v := range anyMap {
			if s, ok := v.(string); ok {
				m[k] = s
			} else {
				m[k] = fmt.Sprint(v)
			}
		}
		return m, false
	}

	// Double-encoded blobs decode to a JSON string whose content is the
	// real map.
	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &strMap); err == nil {
			return NoteMap(strMap), false
		}
		return NoteMap{fallbackKey: inner}, true
	}

	return NoteMap{fallbackKey: raw}, true
}

// Encode serializes the map for storage. A nil map encodes as "{}".
func (m NoteMap) Encode() string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DailySummary holds the once-per-day aggregate fields shared by every
// slot of a date.
type DailySummary struct {
	Date                          string  `json:"date"`
	StomachLevel                  int     `json:"stomach_level"`
	ThroatLevel                   int     `json:"throat_level"`
	DryEyeLevel                   int     `json:"dry_eye_level"`
	FatigueLevel                  int     `json:"fatigue_level"`
	SleepNote                     string  `json:"sleep_note"`
	DailyActivityNote             string  `json:"daily_activity_note"`
	PainIncreasingActivities      string  `json:"pain_increasing_activities"`
	PainDecreasingActivities      string  `json:"pain_decreasing_activities"`
	DizzinessIncreasingActivities string  `json:"dizziness_increasing_activities"`
	DizzinessDecreasingActivities string  `json:"dizziness_decreasing_activities"`
	MedicationUsed                bool    `json:"medication_used"`
	MedicationNote                string  `json:"medication_note"`
	Notes                         NoteMap `json:"notes"`
	Triggers                      NoteMap `json:"triggers"`
	Interventions                 NoteMap `json:"interventions"`
	CreatedAt                     string  `json:"created_at,omitempty"`
}

// MergedRecordView is a per-slot observation with the day's summary
// overlaid. Day-level fields come from the summary when one exists and
// from the row's own legacy columns otherwise.
type MergedRecordView struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	TimeOfDay string `json:"time_of_day"`

	PainLevel       int    `json:"pain_level"`
	DizzinessLevel  int    `json:"dizziness_level"`
	MoodLevel       int    `json:"mood_level"`
	BodyFeelingNote string `json:"body_feeling_note"`

	StomachLevel                  int    `json:"stomach_level"`
	ThroatLevel                   int    `json:"throat_level"`
	DryEyeLevel                   int    `json:"dry_eye_level"`
	FatigueLevel                  int    `json:"fatigue_level"`
	SleepNote                     string `json:"sleep_note"`
	DailyActivityNote             string `json:"daily_activity_note"`
	PainIncreasingActivities      string `json:"pain_increasing_activities"`
	PainDecreasingActivities      string `json:"pain_decreasing_activities"`
	DizzinessIncreasingActivities string `json:"dizziness_increasing_activities"`
	DizzinessDecreasingActivities string `json:"dizziness_decreasing_activities"`
	MedicationUsed                bool   `json:"medication_used"`
	MedicationNote                string `json:"medication_note"`

	Notes         NoteMap `json:"notes"`
	Triggers      NoteMap `json:"triggers"`
	Interventions NoteMap `json:"interventions"`

	CreatedAt string `json:"created_at"`

	// Recovered is set when any of the row's blobs needed fallback
	// decoding. Not serialized; surfaces through metrics and logs.
	Recovered bool `json:"-"`
}

// RecordInput is the write payload for a single slot entry. Day-level
// fields ride along and update the date's summary.
type RecordInput struct {
	Date      string `json:"date"`
	TimeOfDay string `json:"time_of_day"`

	PainLevel       int    `json:"pain_level"`
	DizzinessLevel  int    `json:"dizziness_level"`
	MoodLevel       int    `json:"mood_level"`
	BodyFeelingNote string `json:"body_feeling_note"`

	StomachLevel                  int     `json:"stomach_level"`
	ThroatLevel                   int     `json:"throat_level"`
	DryEyeLevel                   int     `json:"dry_eye_level"`
	FatigueLevel                  int     `json:"fatigue_level"`
	SleepNote                     string  `json:"sleep_note"`
	DailyActivityNote             string  `json:"daily_activity_note"`
	PainIncreasingActivities      string  `json:"pain_increasing_activities"`
	PainDecreasingActivities      string  `json:"pain_decreasing_activities"`
	DizzinessIncreasingActivities string  `json:"dizziness_increasing_activities"`
	DizzinessDecreasingActivities string  `json:"dizziness_decreasing_activities"`
	MedicationUsed                bool    `json:"medication_used"`
	MedicationNote                string  `json:"medication_note"`
	Notes                         NoteMap `json:"notes"`
	Triggers                      NoteMap `json:"triggers"`
	Interventions                 NoteMap `json:"interventions"`
}

// Summary extracts the day-level portion of the input.
func (in *RecordInput) Summary() DailySummary {
	return DailySummary{
		Date:                          in.Date,
		StomachLevel:                  in.StomachLevel,
		ThroatLevel:                   in.ThroatLevel,
		DryEyeLevel:                   in.DryEyeLevel,
		FatigueLevel:                  in.FatigueLevel,
		SleepNote:                     in.SleepNote,
		DailyActivityNote:             in.DailyActivityNote,
		PainIncreasingActivities:      in.PainIncreasingActivities,
		PainDecreasingActivities:      in.PainDecreasingActivities,
		DizzinessIncreasingActivities: in.DizzinessIncreasingActivities,
		DizzinessDecreasingActivities: in.DizzinessDecreasingActivities,
		MedicationUsed:                in.MedicationUsed,
		MedicationNote:                in.MedicationNote,
		Notes:                         in.Notes,
		Triggers:                      in.Triggers,
		Interventions:                 in.Interventions,
	}
}
