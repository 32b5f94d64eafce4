package constants

// RiskPriority is the stored priority class of a risk assessment.
type RiskPriority string

const (
	PriorityLow    RiskPriority = "LOW"
	PriorityMedium RiskPriority = "MEDIUM"
	PriorityHigh   RiskPriority = "HIGH"
)

// Cotation bounds and priority thresholds. Each of the four factors
// (frequency, probability, severity, control) is clamped to 1..4, so the
// product lies in 1..256; scores below 36 are LOW, below 108 MEDIUM,
// anything else HIGH.
const (
	CotationMin = 1
	CotationMax = 4

	RiskScoreMediumThreshold = 36
	RiskScoreHighThreshold   = 108
)

// ActionStatus is the lifecycle status of an action plan entry.
type ActionStatus string

const (
	ActionStatusTodo       ActionStatus = "TODO"
	ActionStatusInProgress ActionStatus = "IN_PROGRESS"
	ActionStatusDone       ActionStatus = "DONE"
)

// Defaults assigned to materialized action plans; the structure carries no
// per-measure priority or status.
const (
	DefaultActionPriority = PriorityMedium
	DefaultActionStatus   = ActionStatusTodo
)
