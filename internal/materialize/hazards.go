package materialize

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/repository"
)

// MatchHazard is the pure resolution function over the visible hazard set
// (global plus tenant), with fixed precedence: (a) case-insensitive
// substring match on the short label, then (b) membership in a reference's
// lower-cased keyword set. Returns nil when nothing matches. refs must be
// ordered oldest first so resolution is deterministic.
func MatchHazard(refs []*entity.HazardReference, label string) *entity.HazardReference {
	norm := normalizeLabel(label)
	if norm == "" {
		return nil
	}

	for _, ref := range refs {
		refLabel := normalizeLabel(ref.Label)
		if strings.Contains(refLabel, norm) || strings.Contains(norm, refLabel) {
			return ref
		}
	}
	for _, ref := range refs {
		for _, kw := range ref.Keywords {
			kw = normalizeLabel(kw)
			if kw == norm || strings.Contains(norm, kw) {
				return ref
			}
		}
	}
	return nil
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// hazardResolver is the lookup-or-create over one materialization run. The
// visible set is loaded once; references created during the run join it, so
// the same label resolves to one reference however many rows carry it.
type hazardResolver struct {
	tenantID uuid.UUID
	repo     repository.HazardRepository
	refs     []*entity.HazardReference
}

func newHazardResolver(ctx context.Context, tenantID uuid.UUID, repo repository.HazardRepository) (*hazardResolver, error) {
	refs, err := repo.ListVisible(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &hazardResolver{tenantID: tenantID, repo: repo, refs: refs}, nil
}

// Resolve finds the reference for a free-text hazard label, creating a
// tenant-scoped custom reference when nothing matches. The new reference's
// keyword set is the single lower-cased input label.
func (r *hazardResolver) Resolve(ctx context.Context, label string) (*entity.HazardReference, error) {
	if ref := MatchHazard(r.refs, label); ref != nil {
		return ref, nil
	}

	tenantID := r.tenantID
	created, err := r.repo.Create(ctx, &entity.HazardReference{
		TenantID: &tenantID,
		Label:    strings.TrimSpace(label),
		Keywords: []string{normalizeLabel(label)},
		Custom:   true,
	})
	if err != nil {
		return nil, err
	}
	r.refs = append(r.refs, created)
	return created, nil
}
