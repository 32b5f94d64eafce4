package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/internal/entity"
)

type HazardRepository interface {
	// ListVisible returns the hazard references visible to a tenant:
	// global rows plus the tenant's own custom rows, oldest first.
	ListVisible(ctx context.Context, tenantID uuid.UUID) ([]*entity.HazardReference, error)
	Create(ctx context.Context, h *entity.HazardReference) (*entity.HazardReference, error)
}

type hazardRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewHazardRepository(q Querier, logger *slog.Logger) HazardRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &hazardRepo{q: q, logger: logger}
}

const hazardColumns = `id, tenant_id, label, keywords, custom, created_at`

func (r *hazardRepo) ListVisible(ctx context.Context, tenantID uuid.UUID) ([]*entity.HazardReference, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+hazardColumns+` FROM hazard_references
		WHERE tenant_id IS NULL OR tenant_id = $1
		ORDER BY created_at ASC`,
		tenantID)
	if err != nil {
		r.logger.Error("hazard list failed", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.HazardReference
	for rows.Next() {
		var h entity.HazardReference
		if err := rows.Scan(&h.ID, &h.TenantID, &h.Label, &h.Keywords, &h.Custom, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (r *hazardRepo) Create(ctx context.Context, h *entity.HazardReference) (*entity.HazardReference, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO hazard_references (tenant_id, label, keywords, custom)
		VALUES ($1, $2, $3, $4)
		RETURNING `+hazardColumns,
		h.TenantID, h.Label, h.Keywords, h.Custom)
	var created entity.HazardReference
	if err := row.Scan(&created.ID, &created.TenantID, &created.Label, &created.Keywords, &created.Custom, &created.CreatedAt); err != nil {
		r.logger.Error("hazard create failed", "label", h.Label, "error", err)
		return nil, err
	}
	r.logger.Info("hazard reference created", "hazard_id", created.ID, "label", created.Label, "custom", created.Custom)
	return &created, nil
}
