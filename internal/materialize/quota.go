package materialize

import (
	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
)

// CheckQuota is the quota gate: a pure comparison of the current count plus
// the rows about to be created against the plan ceiling. Unbounded limits
// always pass. Runs inside the tenant-serialized transaction, so the count
// it reads cannot be raced by a concurrent import.
func CheckQuota(entityType string, current, pending, limit int, limits constants.PlanLimits) error {
	if limit == constants.Unbounded {
		return nil
	}
	if current+pending > limit {
		return &common.QuotaExceededError{
			EntityType:    entityType,
			Current:       current,
			Limit:         limit,
			SuggestedPlan: limits.SuggestedUpgradeTo,
		}
	}
	return nil
}
