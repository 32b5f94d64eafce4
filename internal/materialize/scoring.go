package materialize

import "github.com/preventio/duerp-import/constants"

// ClampCotation forces a factor into the valid cotation range.
func ClampCotation(v int) int {
	if v < constants.CotationMin {
		return constants.CotationMin
	}
	if v > constants.CotationMax {
		return constants.CotationMax
	}
	return v
}

// RiskScore is the product of the four clamped cotation factors
// (frequency, probability, severity, control).
func RiskScore(frequency, probability, severity, control int) int {
	return ClampCotation(frequency) * ClampCotation(probability) * ClampCotation(severity) * ClampCotation(control)
}

// PriorityForScore classifies a score with the canonical thresholds; it is
// monotonic in the score.
func PriorityForScore(score int) constants.RiskPriority {
	switch {
	case score < constants.RiskScoreMediumThreshold:
		return constants.PriorityLow
	case score < constants.RiskScoreHighThreshold:
		return constants.PriorityMedium
	default:
		return constants.PriorityHigh
	}
}
