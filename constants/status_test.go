package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from ImportStatus
		to   ImportStatus
		want bool
	}{
		{StatusUploading, StatusAnalyzing, true},
		{StatusUploading, StatusFailed, true},
		{StatusUploading, StatusValidated, false},
		{StatusUploading, StatusCompleted, false},
		{StatusAnalyzing, StatusValidated, true},
		{StatusAnalyzing, StatusCompleted, true},
		{StatusAnalyzing, StatusFailed, true},
		{StatusValidated, StatusCompleted, true},
		{StatusValidated, StatusFailed, true},
		{StatusValidated, StatusAnalyzing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusAnalyzing, false},
		{StatusFailed, StatusUploading, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []ImportStatus{StatusUploading, StatusAnalyzing, StatusValidated, StatusCompleted, StatusFailed}
	for _, terminal := range []ImportStatus{StatusCompleted, StatusFailed} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range all {
			assert.False(t, CanTransition(terminal, to), "%s -> %s must be illegal", terminal, to)
		}
	}
}

func TestValidatable(t *testing.T) {
	assert.False(t, StatusUploading.Validatable())
	assert.True(t, StatusAnalyzing.Validatable())
	assert.True(t, StatusValidated.Validatable())
	assert.False(t, StatusCompleted.Validatable())
	assert.False(t, StatusFailed.Validatable())
}

func TestMapExtToFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want ImportFormat
	}{
		{"txt", FormatTabular},
		{".txt", FormatTabular},
		{"HTML", FormatRichText},
		{"htm", FormatRichText},
		{"xlsx", FormatSpreadsheet},
		{"csv", FormatDelimited},
		{"pdf", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapExtToFormat(tt.ext), "ext %q", tt.ext)
	}
}

func TestParseFormat(t *testing.T) {
	got, ok := ParseFormat(" delimited ")
	assert.True(t, ok)
	assert.Equal(t, FormatDelimited, got)

	_, ok = ParseFormat("pdf")
	assert.False(t, ok)
}

func TestPlanLimitsForFallsBackToStarter(t *testing.T) {
	assert.Equal(t, "starter", PlanLimitsFor("").ID)
	assert.Equal(t, "starter", PlanLimitsFor("unknown-plan").ID)
	assert.Equal(t, "pro", PlanLimitsFor(" PRO ").ID)
	assert.Equal(t, Unbounded, PlanLimitsFor("enterprise").MaxRisksPerMonth)
}
