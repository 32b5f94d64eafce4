package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetExtractor reads .xlsx workbooks. Every sheet is flattened to
// tab-separated lines under a "## <sheet>" marker so the structuring stage
// sees one plain-text document.
type SpreadsheetExtractor struct{}

func (e *SpreadsheetExtractor) Extract(_ context.Context, data []byte) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var (
		b         strings.Builder
		warnings  []string
		totalRows int
	)
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %q unreadable: %v", sheet, err))
			continue
		}
		if len(sheets) > 1 {
			b.WriteString("## ")
			b.WriteString(sheet)
			b.WriteString("\n")
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
		totalRows += len(rows)
	}
	if totalRows == 0 {
		return Result{}, fmt.Errorf("workbook has no rows")
	}

	return Result{
		Text: b.String(),
		Metadata: map[string]any{
			"sheets":    sheets,
			"row_count": totalRows,
		},
		Warnings: warnings,
	}, nil
}
