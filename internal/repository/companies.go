package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/preventio/duerp-import/internal/entity"
)

type CompanyRepository interface {
	GetBySIRET(ctx context.Context, tenantID uuid.UUID, siret string) (*entity.Company, error)
	GetByLegalName(ctx context.Context, tenantID uuid.UUID, legalName string) (*entity.Company, error)
	First(ctx context.Context, tenantID uuid.UUID) (*entity.Company, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int, error)
	Create(ctx context.Context, c *entity.Company) (*entity.Company, error)
}

type companyRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewCompanyRepository(q Querier, logger *slog.Logger) CompanyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &companyRepo{q: q, logger: logger}
}

const companyColumns = `id, tenant_id, legal_name, siret, address, employee_count, sector, created_at`

func (r *companyRepo) GetBySIRET(ctx context.Context, tenantID uuid.UUID, siret string) (*entity.Company, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE tenant_id = $1 AND siret = $2`,
		tenantID, siret)
	return scanCompany(row)
}

func (r *companyRepo) GetByLegalName(ctx context.Context, tenantID uuid.UUID, legalName string) (*entity.Company, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE tenant_id = $1 AND lower(legal_name) = lower($2)`,
		tenantID, legalName)
	return scanCompany(row)
}

func (r *companyRepo) First(ctx context.Context, tenantID uuid.UUID) (*entity.Company, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE tenant_id = $1 ORDER BY created_at ASC LIMIT 1`,
		tenantID)
	return scanCompany(row)
}

func (r *companyRepo) Count(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM companies WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, err
}

func (r *companyRepo) Create(ctx context.Context, c *entity.Company) (*entity.Company, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO companies (tenant_id, legal_name, siret, address, employee_count, sector)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+companyColumns,
		c.TenantID, c.LegalName, c.SIRET, c.Address, c.EmployeeCount, c.Sector)
	created, err := scanCompany(row)
	if err != nil {
		r.logger.Error("company create failed", "tenant_id", c.TenantID, "legal_name", c.LegalName, "error", err)
		return nil, err
	}
	r.logger.Info("company created", "company_id", created.ID, "tenant_id", c.TenantID, "legal_name", c.LegalName)
	return created, nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(&c.ID, &c.TenantID, &c.LegalName, &c.SIRET, &c.Address, &c.EmployeeCount, &c.Sector, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
