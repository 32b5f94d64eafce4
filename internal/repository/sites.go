package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/preventio/duerp-import/internal/entity"
)

type SiteRepository interface {
	MainByCompany(ctx context.Context, companyID uuid.UUID) (*entity.Site, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int, error)
	Create(ctx context.Context, s *entity.Site) (*entity.Site, error)
}

type siteRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewSiteRepository(q Querier, logger *slog.Logger) SiteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &siteRepo{q: q, logger: logger}
}

const siteColumns = `id, tenant_id, company_id, name, is_main, created_at`

func (r *siteRepo) MainByCompany(ctx context.Context, companyID uuid.UUID) (*entity.Site, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+siteColumns+` FROM sites
		WHERE company_id = $1 AND is_main ORDER BY created_at ASC LIMIT 1`,
		companyID)
	return scanSite(row)
}

func (r *siteRepo) Count(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM sites WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, err
}

func (r *siteRepo) Create(ctx context.Context, s *entity.Site) (*entity.Site, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO sites (tenant_id, company_id, name, is_main)
		VALUES ($1, $2, $3, $4)
		RETURNING `+siteColumns,
		s.TenantID, s.CompanyID, s.Name, s.IsMain)
	created, err := scanSite(row)
	if err != nil {
		r.logger.Error("site create failed", "tenant_id", s.TenantID, "company_id", s.CompanyID, "error", err)
		return nil, err
	}
	r.logger.Info("site created", "site_id", created.ID, "company_id", s.CompanyID, "is_main", s.IsMain)
	return created, nil
}

func scanSite(row pgx.Row) (*entity.Site, error) {
	var s entity.Site
	err := row.Scan(&s.ID, &s.TenantID, &s.CompanyID, &s.Name, &s.IsMain, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
