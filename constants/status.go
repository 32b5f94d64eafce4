package constants

// ImportStatus is the canonical status for rows in imports.
type ImportStatus string

// Stable values (store these exact strings in DB).
const (
	StatusUploading ImportStatus = "UPLOADING" // blob stored, extraction not started
	StatusAnalyzing ImportStatus = "ANALYZING" // text extracted, AI structuring in progress
	StatusValidated ImportStatus = "VALIDATED" // candidate structure attached, awaiting human validation
	StatusCompleted ImportStatus = "COMPLETED" // terminal: entities materialized
	StatusFailed    ImportStatus = "FAILED"    // terminal failure
)

// transitions lists the reachable next states per status. FAILED is
// reachable from every non-terminal state.
var transitions = map[ImportStatus][]ImportStatus{
	StatusUploading: {StatusAnalyzing, StatusFailed},
	StatusAnalyzing: {StatusValidated, StatusCompleted, StatusFailed},
	StatusValidated: {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

// CanTransition reports whether moving from -> to is a legal ledger step.
func CanTransition(from, to ImportStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status can never change again.
func (s ImportStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Validatable reports whether an import may be submitted for materialization.
func (s ImportStatus) Validatable() bool {
	return s == StatusAnalyzing || s == StatusValidated
}
