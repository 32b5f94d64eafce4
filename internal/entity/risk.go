package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/constants"
)

// HazardReference is a catalog entry describing a class of danger. Rows with
// a nil TenantID are global; tenant rows are custom entries created by the
// resolver. Never duplicated for the same normalized label within the
// tenant-visible set (global plus tenant).
type HazardReference struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	Label     string     `json:"label"`
	Keywords  []string   `json:"keywords"` // lower-cased
	Custom    bool       `json:"custom"`
	CreatedAt time.Time  `json:"created_at"`
}

// RiskAssessment links one WorkUnit and one HazardReference with the
// four-factor cotation. Score is the product of the clamped factors;
// priority is a step function of the score.
type RiskAssessment struct {
	ID                 uuid.UUID              `json:"id"`
	TenantID           uuid.UUID              `json:"tenant_id"`
	WorkUnitID         uuid.UUID              `json:"work_unit_id"`
	HazardID           uuid.UUID              `json:"hazard_id"`
	DangerousSituation *string                `json:"dangerous_situation,omitempty"`
	ExposedPersons     *int                   `json:"exposed_persons,omitempty"`
	Frequency          int                    `json:"frequency"`
	Probability        int                    `json:"probability"`
	Severity           int                    `json:"severity"`
	Control            int                    `json:"control"`
	Score              int                    `json:"score"`
	Priority           constants.RiskPriority `json:"priority"`
	ExistingMeasures   *string                `json:"existing_measures,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// ActionPlan is a remediation action linked to one WorkUnit and optionally
// to a risk assessment.
type ActionPlan struct {
	ID               uuid.UUID              `json:"id"`
	TenantID         uuid.UUID              `json:"tenant_id"`
	WorkUnitID       uuid.UUID              `json:"work_unit_id"`
	RiskAssessmentID *uuid.UUID             `json:"risk_assessment_id,omitempty"`
	Description      string                 `json:"description"`
	Type             *string                `json:"type,omitempty"`
	Priority         constants.RiskPriority `json:"priority"`
	Status           constants.ActionStatus `json:"status"`
	CreatedAt        time.Time              `json:"created_at"`
}
