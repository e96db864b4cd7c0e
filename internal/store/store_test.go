package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.CreateObservation(&ObservationRow{Date: "2025-06-01", TimeOfDay: "上午", PainLevel: 3}))
	require.NoError(t, s1.Close())

	// Re-opening re-runs every migration against the populated database
	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	row, err := s2.GetObservation("2025-06-01", "上午")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 3, row.PainLevel)
}

func TestObservationCRUD(t *testing.T) {
	s := setupTestStore(t)

	row := &ObservationRow{
		Date:            "2025-06-01",
		TimeOfDay:       "上午",
		PainLevel:       5,
		DizzinessLevel:  2,
		MoodLevel:       7,
		BodyFeelingNote: "头部胀痛",
		Notes:           `{"General":"备注"}`,
	}
	require.NoError(t, s.CreateObservation(row))
	assert.NotZero(t, row.ID)

	got, err := s.GetObservation("2025-06-01", "上午")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.PainLevel)
	assert.Equal(t, "头部胀痛", got.BodyFeelingNote)

	got.PainLevel = 8
	require.NoError(t, s.UpdateObservation(got))

	byID, err := s.GetObservationByID(got.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, 8, byID.PainLevel)

	n, err := s.DeleteObservation(got.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gone, err := s.GetObservation("2025-06-01", "上午")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestGetObservation_NotFound(t *testing.T) {
	s := setupTestStore(t)

	row, err := s.GetObservation("2025-06-01", "晚上")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestListObservationsInRange(t *testing.T) {
	s := setupTestStore(t)

	for _, d := range []string{"2025-06-01", "2025-06-02", "2025-06-05"} {
		require.NoError(t, s.CreateObservation(&ObservationRow{Date: d, TimeOfDay: "上午"}))
	}

	rows, err := s.ListObservationsInRange("2025-06-01", "2025-06-03")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-01", rows[0].Date)
	assert.Equal(t, "2025-06-02", rows[1].Date)
}

func TestUpsertSummary(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.UpsertSummary(&DailySummaryRow{
		Date:      "2025-06-01",
		SleepNote: "睡眠一般",
	}))
	require.NoError(t, s.UpsertSummary(&DailySummaryRow{
		Date:           "2025-06-01",
		SleepNote:      "睡眠良好",
		MedicationUsed: 1,
	}))

	got, err := s.GetSummary("2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "睡眠良好", got.SleepNote)
	assert.Equal(t, 1, got.MedicationUsed)

	var count int64
	require.NoError(t, s.DB().Model(&DailySummaryRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListSummaries(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.UpsertSummary(&DailySummaryRow{Date: "2025-06-01"}))
	require.NoError(t, s.UpsertSummary(&DailySummaryRow{Date: "2025-06-02"}))

	rows, err := s.ListSummaries([]string{"2025-06-01", "2025-06-03"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.ListSummaries(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConfigValue(t *testing.T) {
	s := setupTestStore(t)

	_, found, err := s.GetConfigValue("exercise_list")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetConfigValue("exercise_list", `[{"id":"a"}]`))
	require.NoError(t, s.SetConfigValue("exercise_list", `[{"id":"b"}]`))

	val, found, err := s.GetConfigValue("exercise_list")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"b"}]`, val)
}

func TestExerciseLogCRUD(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.SaveExerciseLog(&ExerciseLogRow{Date: "2025-06-01", Data: `{"x":1}`}))
	require.NoError(t, s.SaveExerciseLog(&ExerciseLogRow{Date: "2025-06-01", Data: `{"x":2}`}))

	got, err := s.GetExerciseLog("2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"x":2}`, got.Data)

	require.NoError(t, s.SaveExerciseLog(&ExerciseLogRow{Date: "2025-06-02", Data: `{}`}))

	rows, err := s.ListExerciseLogs()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-02", rows[0].Date)

	n, err := s.DeleteExerciseLog("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteExerciseLog("2025-06-01")
	require.NoError(t, err)
	assert.Zero(t, n)
}
