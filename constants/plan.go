package constants

import "strings"

// AITier is the AI-extraction entitlement carried by a plan.
type AITier string

const (
	AITierNone     AITier = "none"
	AITierBasic    AITier = "basic"
	AITierAdvanced AITier = "advanced"
)

// Unbounded marks a plan limit with no ceiling.
const Unbounded = -1

// PlanLimits is the narrow contract the pipeline consumes from the
// subscription subsystem: per-entity ceilings plus the AI tier.
type PlanLimits struct {
	ID                 string
	MaxCompanies       int
	MaxSites           int
	MaxWorkUnits       int
	MaxRisksPerMonth   int
	MaxPlansPerMonth   int
	HasAIExtraction    AITier
	SuggestedUpgradeTo string // next tier to propose on quota violation
}

var plans = map[string]PlanLimits{
	"starter": {
		ID:                 "starter",
		MaxCompanies:       1,
		MaxSites:           1,
		MaxWorkUnits:       5,
		MaxRisksPerMonth:   50,
		MaxPlansPerMonth:   25,
		HasAIExtraction:    AITierNone,
		SuggestedUpgradeTo: "pro",
	},
	"pro": {
		ID:                 "pro",
		MaxCompanies:       3,
		MaxSites:           5,
		MaxWorkUnits:       50,
		MaxRisksPerMonth:   500,
		MaxPlansPerMonth:   250,
		HasAIExtraction:    AITierBasic,
		SuggestedUpgradeTo: "enterprise",
	},
	"enterprise": {
		ID:               "enterprise",
		MaxCompanies:     Unbounded,
		MaxSites:         Unbounded,
		MaxWorkUnits:     Unbounded,
		MaxRisksPerMonth: Unbounded,
		MaxPlansPerMonth: Unbounded,
		HasAIExtraction:  AITierAdvanced,
	},
}

// PlanLimitsFor resolves a plan id to its limits. Unknown ids fall back to
// the starter plan so a stale subscription row never unlocks extra quota.
func PlanLimitsFor(planID string) PlanLimits {
	if p, ok := plans[strings.ToLower(strings.TrimSpace(planID))]; ok {
		return p
	}
	return plans["starter"]
}
