package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

// DelimitedExtractor parses delimited text (.csv). French exports commonly
// use ';' so the delimiter is sniffed from the first line.
type DelimitedExtractor struct{}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

func (e *DelimitedExtractor) Extract(_ context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty file")
	}

	delim := sniffDelimiter(data)
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("no rows")
	}

	var b strings.Builder
	for _, rec := range records {
		b.WriteString(strings.Join(rec, "\t"))
		b.WriteString("\n")
	}

	var header []string
	if len(records) > 0 {
		header = records[0]
	}
	return Result{
		Text: b.String(),
		Metadata: map[string]any{
			"delimiter": string(delim),
			"header":    header,
			"row_count": len(records) - 1,
		},
	}, nil
}

// sniffDelimiter picks the candidate occurring most often on the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
