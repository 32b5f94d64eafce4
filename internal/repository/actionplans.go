package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/internal/entity"
)

type ActionPlanRepository interface {
	CountThisMonth(ctx context.Context, tenantID uuid.UUID) (int, error)
	Create(ctx context.Context, ap *entity.ActionPlan) (*entity.ActionPlan, error)
}

type actionPlanRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewActionPlanRepository(q Querier, logger *slog.Logger) ActionPlanRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &actionPlanRepo{q: q, logger: logger}
}

const actionPlanColumns = `id, tenant_id, work_unit_id, risk_assessment_id, description, type, priority, status, created_at`

func (r *actionPlanRepo) CountThisMonth(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM action_plans
		WHERE tenant_id = $1 AND created_at >= date_trunc('month', now())`,
		tenantID).Scan(&n)
	return n, err
}

func (r *actionPlanRepo) Create(ctx context.Context, ap *entity.ActionPlan) (*entity.ActionPlan, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO action_plans (tenant_id, work_unit_id, risk_assessment_id, description, type, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+actionPlanColumns,
		ap.TenantID, ap.WorkUnitID, ap.RiskAssessmentID, ap.Description, ap.Type, ap.Priority, ap.Status)
	var created entity.ActionPlan
	if err := row.Scan(&created.ID, &created.TenantID, &created.WorkUnitID, &created.RiskAssessmentID,
		&created.Description, &created.Type, &created.Priority, &created.Status, &created.CreatedAt); err != nil {
		r.logger.Error("action plan create failed", "work_unit_id", ap.WorkUnitID, "error", err)
		return nil, err
	}
	return &created, nil
}
