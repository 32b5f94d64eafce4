package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TabularExtractor handles fixed-layout tabular text (.txt): legacy DUERP
// exports where columns are aligned with spaces and sections separated by
// ruler lines. Ruler lines are dropped; runs of 2+ spaces become column
// separators so downstream stages see tab-delimited rows.
type TabularExtractor struct{}

func (e *TabularExtractor) Extract(_ context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty file")
	}
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("not valid utf-8")
	}

	raw := strings.ReplaceAll(string(data), "\r\n", "\n")
	var (
		b     strings.Builder
		lines int
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" || isRuler(line) {
			continue
		}
		b.WriteString(splitColumns(line))
		b.WriteString("\n")
		lines++
	}
	if lines == 0 {
		return Result{}, fmt.Errorf("document has no text content")
	}

	return Result{
		Text:     b.String(),
		Metadata: map[string]any{"line_count": lines},
	}, nil
}

// isRuler matches separator lines made of -, =, + and _.
func isRuler(line string) bool {
	for _, r := range line {
		switch r {
		case '-', '=', '+', '_', ' ', '|':
		default:
			return false
		}
	}
	return true
}

// splitColumns turns runs of two or more spaces into single tabs.
func splitColumns(line string) string {
	fields := []string{}
	for _, f := range strings.Split(line, "  ") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return strings.Join(fields, "\t")
}
