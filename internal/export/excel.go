package export

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hanyuejun/health-recorder/internal/journal"
	"github.com/hanyuejun/health-recorder/internal/metrics"
)

const (
	gridSheet   = "身体感觉和活动日志"
	detailSheet = "明细"

	titleColor  = "F4B183"
	headerColor = "FCE4D6"
)

// DateRange expands two YYYY-MM-DD bounds into the inclusive list of
// calendar days between them. Reversed bounds are swapped.
func DateRange(start, end string) ([]string, error) {
	if err := journal.ValidateDate(start); err != nil {
		return nil, err
	}
	if err := journal.ValidateDate(end); err != nil {
		return nil, err
	}

	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	if e.Before(s) {
		s, e = e, s
	}

	var dates []string
	for cur := s; !cur.After(e); cur = cur.AddDate(0, 0, 1) {
		dates = append(dates, cur.Format("2006-01-02"))
	}
	return dates, nil
}

// fieldRow is one labeled row of the grid sheet. Per-slot rows emit
// four cells per date; per-day rows emit one merged cell per date fed
// from the summary.
type fieldRow struct {
	label     string
	perDay    bool
	leftAlign bool
	slotValue func(r *journal.MergedRecordView) string
	dayValue  func(s *journal.DailySummary) string
}

func gridRows() []fieldRow {
	return []fieldRow{
		{label: "疼痛感觉（0～10）", slotValue: func(r *journal.MergedRecordView) string { return strconv.Itoa(r.PainLevel) }},
		{label: "头晕感觉（0～10）", slotValue: func(r *journal.MergedRecordView) string { return strconv.Itoa(r.DizzinessLevel) }},
		{label: "情绪状态（0～10）", slotValue: func(r *journal.MergedRecordView) string { return strconv.Itoa(r.MoodLevel) }},
		{label: "描述身体感觉", leftAlign: true, slotValue: func(r *journal.MergedRecordView) string { return r.BodyFeelingNote }},
		{label: "前夜睡眠情况", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.SleepNote }},
		{label: "当日身体活动情况", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.DailyActivityNote }},
		{label: "加重疼痛的活动", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.PainIncreasingActivities }},
		{label: "减轻疼痛的活动", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.PainDecreasingActivities }},
		{label: "加重头晕的活动", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.DizzinessIncreasingActivities }},
		{label: "减轻头晕的活动", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.DizzinessDecreasingActivities }},
		{label: "是否使用药物", perDay: true, dayValue: func(s *journal.DailySummary) string { return yesNo(s.MedicationUsed) }},
		{label: "用药说明", perDay: true, leftAlign: true, dayValue: func(s *journal.DailySummary) string { return s.MedicationNote }},
	}
}

func yesNo(v bool) string {
	if v {
		return "是"
	}
	return "否"
}

func encodeMap(m journal.NoteMap) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BuildWorkbook renders the date range as a two-sheet xlsx: a grid
// sheet with one labeled row per field and four slot columns per date,
// and a flat detail sheet with one row per observation.
func BuildWorkbook(start, end string, records []journal.MergedRecordView, summaries map[string]journal.DailySummary) ([]byte, error) {
	dates, err := DateRange(start, end)
	if err != nil {
		return nil, err
	}
	slots := journal.TimeSlots()

	// First observation per date and slot wins.
	bySlot := make(map[string]map[string]*journal.MergedRecordView)
	for i := range records {
		r := &records[i]
		if r.Date == "" || r.TimeOfDay == "" {
			continue
		}
		if bySlot[r.Date] == nil {
			bySlot[r.Date] = make(map[string]*journal.MergedRecordView)
		}
		if bySlot[r.Date][r.TimeOfDay] == nil {
			bySlot[r.Date][r.TimeOfDay] = r
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", gridSheet); err != nil {
		return nil, err
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	totalCols := 1 + len(dates)*len(slots)
	lastCol, err := excelize.ColumnNumberToName(totalCols)
	if err != nil {
		return nil, err
	}

	// Title row spanning the full width
	if err := f.MergeCell(gridSheet, "A1", lastCol+"1"); err != nil {
		return nil, err
	}
	f.SetCellValue(gridSheet, "A1", gridSheet)
	f.SetCellStyle(gridSheet, "A1", lastCol+"1", styles.title)

	// Header rows: merged date spans over slot sub-headers
	f.SetCellValue(gridSheet, "A2", "日期")
	f.SetCellValue(gridSheet, "A3", "时间")
	f.SetCellStyle(gridSheet, "A2", lastCol+"3", styles.header)

	col := 2
	for _, d := range dates {
		first, _ := excelize.CoordinatesToCellName(col, 2)
		last, _ := excelize.CoordinatesToCellName(col+len(slots)-1, 2)
		if err := f.MergeCell(gridSheet, first, last); err != nil {
			return nil, err
		}
		f.SetCellValue(gridSheet, first, d)

		for i, slot := range slots {
			cell, _ := excelize.CoordinatesToCellName(col+i, 3)
			f.SetCellValue(gridSheet, cell, slot)
		}
		col += len(slots)
	}

	// Field rows
	for rowOffset, fr := range gridRows() {
		rowIdx := 4 + rowOffset

		labelCell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		f.SetCellValue(gridSheet, labelCell, fr.label)
		f.SetCellStyle(gridSheet, labelCell, labelCell, styles.header)

		valueStyle := styles.center
		if fr.leftAlign {
			valueStyle = styles.leftWrap
		}

		col = 2
		for _, d := range dates {
			if fr.perDay {
				first, _ := excelize.CoordinatesToCellName(col, rowIdx)
				last, _ := excelize.CoordinatesToCellName(col+len(slots)-1, rowIdx)
				if err := f.MergeCell(gridSheet, first, last); err != nil {
					return nil, err
				}
				value := ""
				if sum, ok := summaries[d]; ok {
					value = fr.dayValue(&sum)
				} else {
					value = fr.dayValue(&journal.DailySummary{})
				}
				f.SetCellValue(gridSheet, first, value)
				f.SetCellStyle(gridSheet, first, last, valueStyle)
				col += len(slots)
				continue
			}

			for i, slot := range slots {
				cell, _ := excelize.CoordinatesToCellName(col+i, rowIdx)
				value := ""
				if r := bySlot[d][slot]; r != nil {
					value = fr.slotValue(r)
				}
				f.SetCellValue(gridSheet, cell, value)
				f.SetCellStyle(gridSheet, cell, cell, valueStyle)
			}
			col += len(slots)
		}
	}

	f.SetColWidth(gridSheet, "A", "A", 18)
	if totalCols > 1 {
		second, _ := excelize.ColumnNumberToName(2)
		f.SetColWidth(gridSheet, second, lastCol, 12)
	}
	f.SetRowHeight(gridSheet, 1, 28)
	f.SetRowHeight(gridSheet, 2, 22)
	f.SetRowHeight(gridSheet, 3, 22)
	for i := range gridRows() {
		f.SetRowHeight(gridSheet, 4+i, 48)
	}

	if err := buildDetailSheet(f, styles, records); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	metrics.RecordExcelExport()
	return buf.Bytes(), nil
}

var detailHeaders = []string{
	"id", "date", "time_of_day",
	"pain_level", "dizziness_level", "mood_level", "body_feeling_note",
	"stomach_level", "throat_level", "dry_eye_level", "fatigue_level",
	"sleep_note", "daily_activity_note",
	"pain_increasing_activities", "pain_decreasing_activities",
	"dizziness_increasing_activities", "dizziness_decreasing_activities",
	"medication_used", "medication_note",
	"notes", "triggers", "interventions",
	"created_at",
}

func detailValue(r *journal.MergedRecordView, header string) string {
	switch header {
	case "id":
		return strconv.FormatInt(r.ID, 10)
	case "date":
		return r.Date
	case "time_of_day":
		return r.TimeOfDay
	case "pain_level":
		return strconv.Itoa(r.PainLevel)
	case "dizziness_level":
		return strconv.Itoa(r.DizzinessLevel)
	case "mood_level":
		return strconv.Itoa(r.MoodLevel)
	case "body_feeling_note":
		return r.BodyFeelingNote
	case "stomach_level":
		return strconv.Itoa(r.StomachLevel)
	case "throat_level":
		return strconv.Itoa(r.ThroatLevel)
	case "dry_eye_level":
		return strconv.Itoa(r.DryEyeLevel)
	case "fatigue_level":
		return strconv.Itoa(r.FatigueLevel)
	case "sleep_note":
		return r.SleepNote
	case "daily_activity_note":
		return r.DailyActivityNote
	case "pain_increasing_activities":
		return r.PainIncreasingActivities
	case "pain_decreasing_activities":
		return r.PainDecreasingActivities
	case "dizziness_increasing_activities":
		return r.DizzinessIncreasingActivities
	case "dizziness_decreasing_activities":
		return r.DizzinessDecreasingActivities
	case "medication_used":
		return yesNo(r.MedicationUsed)
	case "medication_note":
		return r.MedicationNote
	case "notes":
		return encodeMap(r.Notes)
	case "triggers":
		return encodeMap(r.Triggers)
	case "interventions":
		return encodeMap(r.Interventions)
	case "created_at":
		return r.CreatedAt
	}
	return ""
}

func buildDetailSheet(f *excelize.File, styles *styleSet, records []journal.MergedRecordView) error {
	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}

	for c, h := range detailHeaders {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		f.SetCellValue(detailSheet, cell, h)
		f.SetCellStyle(detailSheet, cell, cell, styles.header)
	}

	for i := range records {
		for c, h := range detailHeaders {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			f.SetCellValue(detailSheet, cell, detailValue(&records[i], h))
			f.SetCellStyle(detailSheet, cell, cell, styles.leftWrap)
		}
	}

	wide, _ := excelize.ColumnNumberToName(7)
	last, _ := excelize.ColumnNumberToName(len(detailHeaders))
	f.SetColWidth(detailSheet, "A", wide, 18)
	f.SetColWidth(detailSheet, "H", last, 22)

	return f.SetPanes(detailSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

type styleSet struct {
	title    int
	header   int
	center   int
	leftWrap int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	leftWrap := &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}

	title, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: center,
		Font:      &excelize.Font{Bold: true, Size: 16},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{titleColor}},
	})
	if err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: center,
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
	})
	if err != nil {
		return nil, err
	}

	centerStyle, err := f.NewStyle(&excelize.Style{Border: border, Alignment: center})
	if err != nil {
		return nil, err
	}

	leftWrapStyle, err := f.NewStyle(&excelize.Style{Border: border, Alignment: leftWrap})
	if err != nil {
		return nil, err
	}

	return &styleSet{title: title, header: header, center: centerStyle, leftWrap: leftWrapStyle}, nil
}
