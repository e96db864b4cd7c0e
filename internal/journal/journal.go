package journal

import (
	"time"

	"go.uber.org/zap"

	apperrors "github.com/hanyuejun/health-recorder/internal/errors"
	"github.com/hanyuejun/health-recorder/internal/metrics"
	"github.com/hanyuejun/health-recorder/internal/store"
)

const (
	dateFormat      = "2006-01-02"
	timestampFormat = "2006-01-02 15:04:05"
)

// ValidateDate checks a YYYY-MM-DD date string
func ValidateDate(date string) error {
	if _, err := time.Parse(dateFormat, date); err != nil {
		return apperrors.ErrInvalidDate
	}
	return nil
}

// Service reconciles per-slot observations with daily summaries
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

// NewService creates a journal service
func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// GetRecord retrieves the merged view for a date and time-of-day slot.
// The slot is matched through its aliases so legacy labels still
// resolve. Returns (nil, nil) when no observation exists.
func (s *Service) GetRecord(date, timeOfDay string) (*MergedRecordView, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	row, err := s.findObservation(date, timeOfDay)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	summary, err := s.GetSummary(date)
	if err != nil {
		return nil, err
	}

	view := s.merge(row, summary)
	return &view, nil
}

// GetAllRecords returns merged views for every observation, newest
// dates first.
func (s *Service) GetAllRecords() ([]MergedRecordView, error) {
	rows, err := s.store.ListObservations()
	if err != nil {
		return nil, err
	}
	return s.mergeAll(rows)
}

// GetRecordsInRange returns merged views between two dates inclusive,
// oldest first. Reversed bounds are swapped rather than rejected.
func (s *Service) GetRecordsInRange(start, end string) ([]MergedRecordView, error) {
	if err := ValidateDate(start); err != nil {
		return nil, err
	}
	if err := ValidateDate(end); err != nil {
		return nil, err
	}
	if start > end {
		start, end = end, start
	}

	rows, err := s.store.ListObservationsInRange(start, end)
	if err != nil {
		return nil, err
	}
	return s.mergeAll(rows)
}

// AddRecord writes one slot entry. The day-level fields of the payload
// update the date's summary first, then the slot fields land on the
// observation row, updating in place when the slot (or an alias of it)
// already has one. Returns the merged view after the write.
func (s *Service) AddRecord(in *RecordInput) (*MergedRecordView, error) {
	if err := ValidateDate(in.Date); err != nil {
		return nil, err
	}
	if in.TimeOfDay == "" {
		return nil, apperrors.Wrap(apperrors.ErrBadRequest, "GEN_002", "time_of_day is required")
	}

	slot := NormalizeTimeOfDay(in.TimeOfDay)

	if err := s.UpsertSummary(in.Summary()); err != nil {
		return nil, err
	}

	existing, err := s.findObservation(in.Date, slot)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.TimeOfDay = slot
		existing.PainLevel = in.PainLevel
		existing.DizzinessLevel = in.DizzinessLevel
		existing.MoodLevel = in.MoodLevel
		existing.BodyFeelingNote = in.BodyFeelingNote
		if err := s.store.UpdateObservation(existing); err != nil {
			return nil, err
		}
	} else {
		row := &store.ObservationRow{
			Date:            in.Date,
			TimeOfDay:       slot,
			PainLevel:       in.PainLevel,
			DizzinessLevel:  in.DizzinessLevel,
			MoodLevel:       in.MoodLevel,
			BodyFeelingNote: in.BodyFeelingNote,
			Notes:           "{}",
			Triggers:        "{}",
			Interventions:   "{}",
		}
		if err := s.store.CreateObservation(row); err != nil {
			return nil, err
		}
	}

	metrics.RecordRecordWrite()
	s.logger.Debug("record written",
		zap.String("date", in.Date),
		zap.String("time_of_day", slot))

	return s.GetRecord(in.Date, slot)
}

// DeleteRecord removes an observation by id
func (s *Service) DeleteRecord(id int64) error {
	n, err := s.store.DeleteObservation(id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrRecordNotFound
	}
	metrics.RecordRecordDelete()
	return nil
}

// GetSummary retrieves the daily summary for a date. Returns
// (nil, nil) when the date has none.
func (s *Service) GetSummary(date string) (*DailySummary, error) {
	row, err := s.store.GetSummary(date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	sum := s.summaryFromRow(row)
	return &sum, nil
}

// UpsertSummary inserts or replaces the summary for its date
func (s *Service) UpsertSummary(sum DailySummary) error {
	if err := ValidateDate(sum.Date); err != nil {
		return err
	}

	medication := 0
	if sum.MedicationUsed {
		medication = 1
	}
	row := &store.DailySummaryRow{
		Date:                          sum.Date,
		StomachLevel:                  sum.StomachLevel,
		ThroatLevel:                   sum.ThroatLevel,
		DryEyeLevel:                   sum.DryEyeLevel,
		FatigueLevel:                  sum.FatigueLevel,
		SleepNote:                     sum.SleepNote,
		DailyActivityNote:             sum.DailyActivityNote,
		PainIncreasingActivities:      sum.PainIncreasingActivities,
		PainDecreasingActivities:      sum.PainDecreasingActivities,
		DizzinessIncreasingActivities: sum.DizzinessIncreasingActivities,
		DizzinessDecreasingActivities: sum.DizzinessDecreasingActivities,
		MedicationUsed:                medication,
		MedicationNote:                sum.MedicationNote,
		Notes:                         sum.Notes.Encode(),
		Triggers:                      sum.Triggers.Encode(),
		Interventions:                 sum.Interventions.Encode(),
	}
	if err := s.store.UpsertSummary(row); err != nil {
		return err
	}
	metrics.RecordSummaryUpsert()
	return nil
}

// GetSummariesForDates batch-fetches summaries keyed by date
func (s *Service) GetSummariesForDates(dates []string) (map[string]DailySummary, error) {
	rows, err := s.store.ListSummaries(dates)
	if err != nil {
		return nil, err
	}
	result := make(map[string]DailySummary, len(rows))
	for i := range rows {
		result[rows[i].Date] = s.summaryFromRow(&rows[i])
	}
	return result, nil
}

// findObservation probes the slot's aliases in order and returns the
// first matching row.
func (s *Service) findObservation(date, timeOfDay string) (*store.ObservationRow, error) {
	for _, candidate := range TimeOfDayAliases(timeOfDay) {
		row, err := s.store.GetObservation(date, candidate)
		if err != nil {
			return nil, err
		}
		if row != nil {
			return row, nil
		}
	}
	return nil, nil
}

// mergeAll merges a batch of rows against their dates' summaries,
// fetched in one query.
func (s *Service) mergeAll(rows []store.ObservationRow) ([]MergedRecordView, error) {
	seen := make(map[string]bool)
	dates := make([]string, 0, len(rows))
	for i := range rows {
		if !seen[rows[i].Date] {
			seen[rows[i].Date] = true
			dates = append(dates, rows[i].Date)
		}
	}

	summaries, err := s.GetSummariesForDates(dates)
	if err != nil {
		return nil, err
	}

	views := make([]MergedRecordView, 0, len(rows))
	for i := range rows {
		var summary *DailySummary
		if sum, ok := summaries[rows[i].Date]; ok {
			summary = &sum
		}
		views = append(views, s.merge(&rows[i], summary))
	}
	return views, nil
}

// merge builds the view for one row. The summary, when present, wins
// for every day-level field; otherwise the row's own legacy columns
// stand.
func (s *Service) merge(row *store.ObservationRow, summary *DailySummary) MergedRecordView {
	notes, recoveredN := ParseNoteMap(row.Notes)
	triggers, recoveredT := ParseNoteMap(row.Triggers)
	interventions, recoveredI := ParseNoteMap(row.Interventions)
	recovered := recoveredN || recoveredT || recoveredI

	view := MergedRecordView{
		ID:              row.ID,
		Date:            row.Date,
		TimeOfDay:       NormalizeTimeOfDay(row.TimeOfDay),
		PainLevel:       row.PainLevel,
		DizzinessLevel:  row.DizzinessLevel,
		MoodLevel:       row.MoodLevel,
		BodyFeelingNote: row.BodyFeelingNote,

		StomachLevel:                  row.StomachLevel,
		ThroatLevel:                   row.ThroatLevel,
		DryEyeLevel:                   row.DryEyeLevel,
		FatigueLevel:                  row.FatigueLevel,
		SleepNote:                     row.SleepNote,
		DailyActivityNote:             row.DailyActivityNote,
		PainIncreasingActivities:      row.PainIncreasingActivities,
		PainDecreasingActivities:      row.PainDecreasingActivities,
		DizzinessIncreasingActivities: row.DizzinessIncreasingActivities,
		DizzinessDecreasingActivities: row.DizzinessDecreasingActivities,
		MedicationUsed:                row.MedicationUsed != 0,
		MedicationNote:                row.MedicationNote,

		Notes:         notes,
		Triggers:      triggers,
		Interventions: interventions,

		CreatedAt: row.CreatedAt.Format(timestampFormat),
		Recovered: recovered,
	}

	if view.BodyFeelingNote == "" && notes[fallbackKey] != "" {
		view.BodyFeelingNote = notes[fallbackKey]
	}

	if summary != nil {
		view.StomachLevel = summary.StomachLevel
		view.ThroatLevel = summary.ThroatLevel
		view.DryEyeLevel = summary.DryEyeLevel
		view.FatigueLevel = summary.FatigueLevel
		view.SleepNote = summary.SleepNote
		view.DailyActivityNote = summary.DailyActivityNote
		view.PainIncreasingActivities = summary.PainIncreasingActivities
		view.PainDecreasingActivities = summary.PainDecreasingActivities
		view.DizzinessIncreasingActivities = summary.DizzinessIncreasingActivities
		view.DizzinessDecreasingActivities = summary.DizzinessDecreasingActivities
		view.MedicationUsed = summary.MedicationUsed
		view.MedicationNote = summary.MedicationNote
		view.Notes = summary.Notes
		view.Triggers = summary.Triggers
		view.Interventions = summary.Interventions
	}

	if view.Notes == nil {
		view.Notes = NoteMap{}
	}
	if view.Triggers == nil {
		view.Triggers = NoteMap{}
	}
	if view.Interventions == nil {
		view.Interventions = NoteMap{}
	}

	if recovered {
		metrics.RecordRecoveredJSON()
		s.logger.Warn("recovered malformed blob on read",
			zap.String("date", row.Date),
			zap.Int64("id", row.ID))
	}

	return view
}

func (s *Service) summaryFromRow(row *store.DailySummaryRow) DailySummary {
	notes, recoveredN := ParseNoteMap(row.Notes)
	triggers, recoveredT := ParseNoteMap(row.Triggers)
	interventions, recoveredI := ParseNoteMap(row.Interventions)

	if recoveredN || recoveredT || recoveredI {
		metrics.RecordRecoveredJSON()
		s.logger.Warn("recovered malformed blob on summary read",
			zap.String("date", row.Date))
	}

	return DailySummary{
		Date:                          row.Date,
		StomachLevel:                  row.StomachLevel,
		ThroatLevel:                   row.ThroatLevel,
		DryEyeLevel:                   row.DryEyeLevel,
		FatigueLevel:                  row.FatigueLevel,
		SleepNote:                     row.SleepNote,
		DailyActivityNote:             row.DailyActivityNote,
		PainIncreasingActivities:      row.PainIncreasingActivities,
		PainDecreasingActivities:      row.PainDecreasingActivities,
		DizzinessIncreasingActivities: row.DizzinessIncreasingActivities,
		DizzinessDecreasingActivities: row.DizzinessDecreasingActivities,
		MedicationUsed:                row.MedicationUsed != 0,
		MedicationNote:                row.MedicationNote,
		Notes:                         notes,
		Triggers:                      triggers,
		Interventions:                 interventions,
		CreatedAt:                     row.CreatedAt.Format(timestampFormat),
	}
}
