package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/preventio/duerp-import/internal/entity"
)

type WorkUnitRepository interface {
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*entity.WorkUnit, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int, error)
	Create(ctx context.Context, wu *entity.WorkUnit) (*entity.WorkUnit, error)
}

type workUnitRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewWorkUnitRepository(q Querier, logger *slog.Logger) WorkUnitRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &workUnitRepo{q: q, logger: logger}
}

const workUnitColumns = `id, tenant_id, site_id, name, description, exposed_count, created_at`

func (r *workUnitRepo) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*entity.WorkUnit, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+workUnitColumns+` FROM work_units WHERE site_id = $1 ORDER BY created_at ASC`,
		siteID)
	if err != nil {
		r.logger.Error("work unit list failed", "site_id", siteID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.WorkUnit
	for rows.Next() {
		wu, err := scanWorkUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wu)
	}
	return out, rows.Err()
}

func (r *workUnitRepo) Count(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM work_units WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, err
}

func (r *workUnitRepo) Create(ctx context.Context, wu *entity.WorkUnit) (*entity.WorkUnit, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO work_units (tenant_id, site_id, name, description, exposed_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+workUnitColumns,
		wu.TenantID, wu.SiteID, wu.Name, wu.Description, wu.ExposedCount)
	created, err := scanWorkUnit(row)
	if err != nil {
		r.logger.Error("work unit create failed", "tenant_id", wu.TenantID, "site_id", wu.SiteID, "name", wu.Name, "error", err)
		return nil, err
	}
	r.logger.Info("work unit created", "work_unit_id", created.ID, "site_id", wu.SiteID, "name", wu.Name)
	return created, nil
}

func scanWorkUnit(row pgx.Row) (*entity.WorkUnit, error) {
	var wu entity.WorkUnit
	err := row.Scan(&wu.ID, &wu.TenantID, &wu.SiteID, &wu.Name, &wu.Description, &wu.ExposedCount, &wu.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wu, nil
}
