package exercise

import (
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Matches numbered headings like "## 1、拉伸" or "## 2. 靠墙站立".
var headingPattern = regexp.MustCompile(`##\s*\d+[、.]\s*(.+)`)

// ParseTemplate extracts exercise names from a markdown template, one
// per numbered second-level heading, ordered as they appear. A missing
// file yields an empty list rather than an error.
func ParseTemplate(path string) ([]ConfigItem, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	matches := headingPattern.FindAllStringSubmatch(string(content), -1)
	items := make([]ConfigItem, 0, len(matches))
	for idx, m := range matches {
		items = append(items, ConfigItem{
			ID:      uuid.NewString(),
			Name:    strings.TrimSpace(m[1]),
			Enabled: true,
			Order:   idx,
		})
	}
	return items, nil
}
