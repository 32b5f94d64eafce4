package constants

import "strings"

// ImportFormat identifies the declared format of an uploaded document.
type ImportFormat string

const (
	FormatTabular     ImportFormat = "TABULAR"     // fixed-layout tabular text (.txt)
	FormatRichText    ImportFormat = "RICHTEXT"    // HTML-flavored rich text (.html, .htm)
	FormatSpreadsheet ImportFormat = "SPREADSHEET" // workbook (.xlsx)
	FormatDelimited   ImportFormat = "DELIMITED"   // delimited text (.csv)
)

// Formats holds the supported formats for the format field in imports.
var Formats = []ImportFormat{FormatTabular, FormatRichText, FormatSpreadsheet, FormatDelimited}

// extToFormat maps lowercased extensions (sans dot) to their format.
var extToFormat = map[string]ImportFormat{
	"txt":  FormatTabular,
	"html": FormatRichText,
	"htm":  FormatRichText,
	"xlsx": FormatSpreadsheet,
	"csv":  FormatDelimited,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format for a file extension, or "" when the
// extension is not supported.
func MapExtToFormat(ext string) ImportFormat {
	return extToFormat[NormalizeExt(ext)]
}

// ParseFormat canonicalizes a declared format string, or returns false.
func ParseFormat(input string) (ImportFormat, bool) {
	f := ImportFormat(strings.ToUpper(strings.TrimSpace(input)))
	for _, known := range Formats {
		if f == known {
			return f, true
		}
	}
	return "", false
}
