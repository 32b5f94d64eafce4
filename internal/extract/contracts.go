package extract

import (
	"context"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
)

// Extractor turns raw file bytes into plain text plus format-specific
// metadata. Extraction is the only format-specific stage: everything after
// it treats the four formats uniformly.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (Result, error)
}

type Result struct {
	Text     string
	Metadata map[string]any
	Warnings []string
}

var extractors = map[constants.ImportFormat]Extractor{
	constants.FormatTabular:     &TabularExtractor{},
	constants.FormatRichText:    &RichTextExtractor{},
	constants.FormatSpreadsheet: &SpreadsheetExtractor{},
	constants.FormatDelimited:   &DelimitedExtractor{},
}

// For dispatches a declared format to its extractor.
func For(format constants.ImportFormat) (Extractor, error) {
	ex, ok := extractors[format]
	if !ok {
		return nil, &common.ExtractionError{Format: string(format), Cause: common.ErrInvalidInput}
	}
	return ex, nil
}

// Run extracts with the format's extractor, wrapping any failure in the
// fatal extraction error the ledger records.
func Run(ctx context.Context, format constants.ImportFormat, data []byte) (Result, error) {
	ex, err := For(format)
	if err != nil {
		return Result{}, err
	}
	res, err := ex.Extract(ctx, data)
	if err != nil {
		return Result{}, &common.ExtractionError{Format: string(format), Cause: err}
	}
	return res, nil
}
