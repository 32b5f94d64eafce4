package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/internal/entity"
)

type RiskRepository interface {
	// CountThisMonth counts assessments created since the start of the
	// current month, for the per-month plan quota.
	CountThisMonth(ctx context.Context, tenantID uuid.UUID) (int, error)
	Create(ctx context.Context, ra *entity.RiskAssessment) (*entity.RiskAssessment, error)
}

type riskRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewRiskRepository(q Querier, logger *slog.Logger) RiskRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &riskRepo{q: q, logger: logger}
}

const riskColumns = `id, tenant_id, work_unit_id, hazard_id, dangerous_situation, exposed_persons,
	frequency, probability, severity, control, score, priority, existing_measures, created_at`

func (r *riskRepo) CountThisMonth(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM risk_assessments
		WHERE tenant_id = $1 AND created_at >= date_trunc('month', now())`,
		tenantID).Scan(&n)
	return n, err
}

func (r *riskRepo) Create(ctx context.Context, ra *entity.RiskAssessment) (*entity.RiskAssessment, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO risk_assessments (tenant_id, work_unit_id, hazard_id, dangerous_situation,
			exposed_persons, frequency, probability, severity, control, score, priority, existing_measures)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+riskColumns,
		ra.TenantID, ra.WorkUnitID, ra.HazardID, ra.DangerousSituation, ra.ExposedPersons,
		ra.Frequency, ra.Probability, ra.Severity, ra.Control, ra.Score, ra.Priority, ra.ExistingMeasures)
	var created entity.RiskAssessment
	if err := row.Scan(&created.ID, &created.TenantID, &created.WorkUnitID, &created.HazardID,
		&created.DangerousSituation, &created.ExposedPersons, &created.Frequency, &created.Probability,
		&created.Severity, &created.Control, &created.Score, &created.Priority,
		&created.ExistingMeasures, &created.CreatedAt); err != nil {
		r.logger.Error("risk assessment create failed", "work_unit_id", ra.WorkUnitID, "hazard_id", ra.HazardID, "error", err)
		return nil, err
	}
	return &created, nil
}
