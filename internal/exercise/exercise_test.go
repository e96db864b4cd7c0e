package exercise

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hanyuejun/health-recorder/internal/errors"
	"github.com/hanyuejun/health-recorder/internal/store"
)

const sampleTemplate = `# 康复训练计划

## 1、颈部拉伸
每次保持15秒。

## 2. 靠墙站立
背部贴墙，10分钟。

### 注意事项
不是训练项目。

## 3、呼吸练习
`

func writeTemplate(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "exercise_template.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func setupTestService(t *testing.T, templatePath string) *Service {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, templatePath, nil)
}

func TestParseTemplate(t *testing.T) {
	path := writeTemplate(t, sampleTemplate)

	items, err := ParseTemplate(path)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "颈部拉伸", items[0].Name)
	assert.Equal(t, "靠墙站立", items[1].Name)
	assert.Equal(t, "呼吸练习", items[2].Name)

	for idx, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.True(t, item.Enabled)
		assert.Equal(t, idx, item.Order)
	}
}

func TestParseTemplate_MissingFile(t *testing.T) {
	items, err := ParseTemplate(filepath.Join(t.TempDir(), "nope.md"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConfig_SeedsFromTemplate(t *testing.T) {
	path := writeTemplate(t, sampleTemplate)
	svc := setupTestService(t, path)

	items, err := svc.Config()
	require.NoError(t, err)
	require.Len(t, items, 3)

	// The seeded list is persisted: ids stay stable even after the
	// template goes away.
	require.NoError(t, os.Remove(path))

	again, err := svc.Config()
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, items[0].ID, again[0].ID)
}

func TestConfig_EmptyWithoutTemplate(t *testing.T) {
	svc := setupTestService(t, filepath.Join(t.TempDir(), "nope.md"))

	items, err := svc.Config()
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestUpdateConfig_Defaults(t *testing.T) {
	svc := setupTestService(t, "")

	enabled := false
	order := 0
	items, err := svc.UpdateConfig([]ConfigItemInput{
		{Name: "新项目"},
		{ID: "keep-id", Name: "旧项目", Enabled: &enabled, Order: &order},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.NotEmpty(t, items[0].ID)
	assert.True(t, items[0].Enabled)
	assert.Equal(t, 99, items[0].Order)

	assert.Equal(t, "keep-id", items[1].ID)
	assert.False(t, items[1].Enabled)
	assert.Equal(t, 0, items[1].Order)

	// full replace
	stored, err := svc.Config()
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestLogRoundTrip(t *testing.T) {
	svc := setupTestService(t, "")

	_, err := svc.SaveLog("2025-06-01", map[string]LogItem{
		"ex-1": {Name: "颈部拉伸", Status: StatusDone, Feedback: "感觉放松"},
	})
	require.NoError(t, err)

	log, err := svc.GetLog("2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, StatusDone, log.Data["ex-1"].Status)
	assert.Equal(t, "感觉放松", log.Data["ex-1"].Feedback)

	// overwrite replaces wholesale
	_, err = svc.SaveLog("2025-06-01", map[string]LogItem{
		"ex-2": {Name: "靠墙站立", Status: StatusPartial},
	})
	require.NoError(t, err)

	log, err = svc.GetLog("2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Len(t, log.Data, 1)
	_, ok := log.Data["ex-2"]
	assert.True(t, ok)
}

func TestGetLog_NotFound(t *testing.T) {
	svc := setupTestService(t, "")

	log, err := svc.GetLog("2025-06-01")
	require.NoError(t, err)
	assert.Nil(t, log)
}

func TestDeleteLog(t *testing.T) {
	svc := setupTestService(t, "")

	_, err := svc.SaveLog("2025-06-01", nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteLog("2025-06-01"))

	err = svc.DeleteLog("2025-06-01")
	assert.ErrorIs(t, err, apperrors.ErrExerciseLogNotFound)
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusDone.Known())
	assert.True(t, StatusPartial.Known())
	assert.True(t, StatusNotDone.Known())
	assert.False(t, Status("做了一半，有点累").Known())
	assert.False(t, Status("").Known())
}

func TestExportMarkdown(t *testing.T) {
	svc := setupTestService(t, "")

	_, err := svc.UpdateConfig([]ConfigItemInput{
		{ID: "ex-1", Name: "颈部拉伸", Order: intPtr(0)},
		{ID: "ex-2", Name: "靠墙站立", Order: intPtr(1)},
	})
	require.NoError(t, err)

	_, err = svc.SaveLog("2025-06-02", map[string]LogItem{
		"ex-2":   {Name: "靠墙站立", Status: StatusPartial, Feedback: "坚持了5分钟"},
		"ex-1":   {Name: "颈部拉伸", Status: StatusDone},
		"ex-old": {Name: "已删除项目", Status: StatusNotDone},
	})
	require.NoError(t, err)
	_, err = svc.SaveLog("2025-06-01", map[string]LogItem{
		"ex-1": {Name: "颈部拉伸", Status: StatusDone, Feedback: "状态不错"},
	})
	require.NoError(t, err)

	out, err := svc.ExportMarkdown("2025-06-01", "2025-06-02")
	require.NoError(t, err)

	// days in ascending order
	assert.Less(t,
		strings.Index(out, "# 2025-06-01 训练反馈"),
		strings.Index(out, "# 2025-06-02 训练反馈"))

	// catalog order within a day, unknown ids last
	day2 := out[strings.Index(out, "# 2025-06-02"):]
	assert.Contains(t, day2, "## 1、颈部拉伸")
	assert.Contains(t, day2, "## 2、靠墙站立")
	assert.Contains(t, day2, "## 3、已删除项目")
	assert.Contains(t, day2, "**状态**: 部分完成")
	assert.Contains(t, day2, "坚持了5分钟")

	// empty feedback leaves no blank paragraph
	assert.NotContains(t, out, "## 1、颈部拉伸\n**状态**: 完成\n\n\n")
	assert.Contains(t, out, "---\n\n")
}

func TestExportMarkdown_SwapsBounds(t *testing.T) {
	svc := setupTestService(t, "")

	_, err := svc.SaveLog("2025-06-01", map[string]LogItem{
		"ex-1": {Name: "颈部拉伸", Status: StatusDone},
	})
	require.NoError(t, err)

	out, err := svc.ExportMarkdown("2025-06-30", "2025-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-06-01 训练反馈")
}

func TestExportMarkdown_NoLogsInRange(t *testing.T) {
	svc := setupTestService(t, "")

	_, err := svc.SaveLog("2025-05-01", map[string]LogItem{
		"ex-1": {Name: "颈部拉伸", Status: StatusDone},
	})
	require.NoError(t, err)

	_, err = svc.ExportMarkdown("2025-06-01", "2025-06-30")
	assert.ErrorIs(t, err, apperrors.ErrNoLogsInRange)
}

func intPtr(v int) *int { return &v }
