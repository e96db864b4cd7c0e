package exercise

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/hanyuejun/health-recorder/internal/errors"
	"github.com/hanyuejun/health-recorder/internal/journal"
	"github.com/hanyuejun/health-recorder/internal/metrics"
	"github.com/hanyuejun/health-recorder/internal/store"
)

// configKey is where the exercise list lives in the config table.
const configKey = "exercise_list"

const (
	defaultOrder = 99  // assigned to updates that omit order
	unknownOrder = 999 // sorts logged exercises missing from the catalog last
	unknownName  = "Unknown"
)

// Service manages the exercise catalog and per-day feedback logs
type Service struct {
	store        *store.Store
	templatePath string
	logger       *zap.Logger
}

// NewService creates an exercise service
func NewService(st *store.Store, templatePath string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, templatePath: templatePath, logger: logger}
}

// Config returns the exercise list, seeding it from the markdown
// template on first use.
func (s *Service) Config() ([]ConfigItem, error) {
	value, found, err := s.store.GetConfigValue(configKey)
	if err != nil {
		return nil, err
	}

	if found && value != "" {
		var items []ConfigItem
		if err := json.Unmarshal([]byte(value), &items); err != nil {
			// A corrupt blob is treated as absent so the catalog can
			// re-seed instead of wedging every config read.
			s.logger.Warn("corrupt exercise config, re-seeding from template", zap.Error(err))
		} else if len(items) > 0 {
			return items, nil
		}
	}

	items, err := ParseTemplate(s.templatePath)
	if err != nil {
		s.logger.Warn("failed to read exercise template", zap.Error(err))
		return []ConfigItem{}, nil
	}
	if len(items) > 0 {
		if err := s.saveConfig(items); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []ConfigItem{}
	}
	return items, nil
}

// UpdateConfig replaces the exercise list wholesale. Items without an
// id get a fresh one; omitted enabled/order fields take defaults.
func (s *Service) UpdateConfig(inputs []ConfigItemInput) ([]ConfigItem, error) {
	items := make([]ConfigItem, 0, len(inputs))
	for _, in := range inputs {
		item := ConfigItem{
			ID:      in.ID,
			Name:    in.Name,
			Enabled: true,
			Order:   defaultOrder,
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if in.Enabled != nil {
			item.Enabled = *in.Enabled
		}
		if in.Order != nil {
			item.Order = *in.Order
		}
		items = append(items, item)
	}

	if err := s.saveConfig(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) saveConfig(items []ConfigItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.store.SetConfigValue(configKey, string(data))
}

// GetLog retrieves one day's feedback. Returns (nil, nil) when the
// date has no log.
func (s *Service) GetLog(date string) (*Log, error) {
	if err := journal.ValidateDate(date); err != nil {
		return nil, err
	}

	row, err := s.store.GetExerciseLog(date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return s.logFromRow(row), nil
}

// SaveLog replaces one day's feedback wholesale
func (s *Service) SaveLog(date string, data map[string]LogItem) (*Log, error) {
	if err := journal.ValidateDate(date); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]LogItem{}
	}

	blob, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveExerciseLog(&store.ExerciseLogRow{Date: date, Data: string(blob)}); err != nil {
		return nil, err
	}

	metrics.RecordExerciseLogSave()
	s.logger.Debug("exercise log saved", zap.String("date", date), zap.Int("items", len(data)))

	return &Log{Date: date, Data: data}, nil
}

// DeleteLog removes one day's feedback
func (s *Service) DeleteLog(date string) error {
	if err := journal.ValidateDate(date); err != nil {
		return err
	}

	n, err := s.store.DeleteExerciseLog(date)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrExerciseLogNotFound
	}
	return nil
}

// AllLogs returns every day's feedback, newest dates first
func (s *Service) AllLogs() ([]Log, error) {
	rows, err := s.store.ListExerciseLogs()
	if err != nil {
		return nil, err
	}

	logs := make([]Log, 0, len(rows))
	for i := range rows {
		logs = append(logs, *s.logFromRow(&rows[i]))
	}
	return logs, nil
}

func (s *Service) logFromRow(row *store.ExerciseLogRow) *Log {
	data := map[string]LogItem{}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
			metrics.RecordRecoveredJSON()
			s.logger.Warn("corrupt exercise log blob",
				zap.String("date", row.Date), zap.Error(err))
			data = map[string]LogItem{}
		}
	}
	return &Log{Date: row.Date, Data: data}
}

// ExportMarkdown renders the feedback between two dates inclusive as a
// markdown narrative, one section per day in ascending date order.
// Items follow the current catalog order; exercises no longer in the
// catalog sort last. Reversed bounds are swapped. Returns
// ErrNoLogsInRange when no day in the range has a log.
func (s *Service) ExportMarkdown(start, end string) (string, error) {
	if err := journal.ValidateDate(start); err != nil {
		return "", err
	}
	if err := journal.ValidateDate(end); err != nil {
		return "", err
	}
	if start > end {
		start, end = end, start
	}

	logs, err := s.AllLogs()
	if err != nil {
		return "", err
	}

	var inRange []Log
	for _, log := range logs {
		if log.Date >= start && log.Date <= end {
			inRange = append(inRange, log)
		}
	}
	if len(inRange) == 0 {
		return "", apperrors.ErrNoLogsInRange
	}

	sort.Slice(inRange, func(i, j int) bool { return inRange[i].Date < inRange[j].Date })

	config, err := s.Config()
	if err != nil {
		return "", err
	}
	orderByID := make(map[string]int, len(config))
	for _, item := range config {
		orderByID[item.ID] = item.Order
	}

	var sb strings.Builder
	for _, log := range inRange {
		fmt.Fprintf(&sb, "# %s 训练反馈\n\n", log.Date)

		type entry struct {
			id   string
			item LogItem
		}
		entries := make([]entry, 0, len(log.Data))
		for id, item := range log.Data {
			entries = append(entries, entry{id: id, item: item})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			oi, oj := entryOrder(orderByID, entries[i].id), entryOrder(orderByID, entries[j].id)
			if oi != oj {
				return oi < oj
			}
			return entries[i].item.Name < entries[j].item.Name
		})

		for i, e := range entries {
			name := e.item.Name
			if name == "" {
				name = unknownName
			}
			fmt.Fprintf(&sb, "## %d、%s\n", i+1, name)
			fmt.Fprintf(&sb, "**状态**: %s\n\n", e.item.Status)
			if e.item.Feedback != "" {
				sb.WriteString(e.item.Feedback + "\n\n")
			}
		}

		sb.WriteString("---\n\n")
	}

	metrics.RecordMarkdownExport()
	return sb.String(), nil
}

func entryOrder(orderByID map[string]int, id string) int {
	if o, ok := orderByID[id]; ok {
		return o
	}
	return unknownOrder
}
