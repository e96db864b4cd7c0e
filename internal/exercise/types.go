package exercise

// Status is the completion state of one exercise on one day. Older
// logs may carry free text here; unknown values are kept as-is.
type Status string

const (
	StatusDone    Status = "完成"
	StatusPartial Status = "部分完成"
	StatusNotDone Status = "未完成"
)

// Known reports whether the status is one of the standard values.
func (s Status) Known() bool {
	switch s {
	case StatusDone, StatusPartial, StatusNotDone:
		return true
	}
	return false
}

// ConfigItem is one configured exercise.
type ConfigItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Order   int    `json:"order"`
}

// ConfigItemInput is the write payload for one exercise. Enabled and
// Order are pointers so an omitted field can take its default (enabled
// true, order 99) without clobbering explicit zero values.
type ConfigItemInput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
	Order   *int   `json:"order"`
}

// LogItem is one exercise's feedback within a day's log.
type LogItem struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Feedback string `json:"feedback"`
}

// Log is one day's exercise feedback, keyed by exercise id.
type Log struct {
	Date string             `json:"date"`
	Data map[string]LogItem `json:"data"`
}
