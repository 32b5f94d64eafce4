package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so every repository can run against the pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open creates a pgx pool for the configured DSN.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "duerp-import"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

// HealthCheck pings the pool to catch DSN issues early.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pool.Ping(ctx)
}

// Bundle groups the repositories one materialization run works with, all
// bound to the same Querier (pool or transaction).
type Bundle struct {
	Imports     ImportRepository
	Companies   CompanyRepository
	Sites       SiteRepository
	WorkUnits   WorkUnitRepository
	Hazards     HazardRepository
	Risks       RiskRepository
	ActionPlans ActionPlanRepository
}

// NewBundle builds the repository set over q.
func NewBundle(q Querier, logger *slog.Logger) Bundle {
	return Bundle{
		Imports:     NewImportRepository(q, logger),
		Companies:   NewCompanyRepository(q, logger),
		Sites:       NewSiteRepository(q, logger),
		WorkUnits:   NewWorkUnitRepository(q, logger),
		Hazards:     NewHazardRepository(q, logger),
		Risks:       NewRiskRepository(q, logger),
		ActionPlans: NewActionPlanRepository(q, logger),
	}
}

// TxRunner executes fn inside one transaction serialized per tenant, so two
// concurrent materializations for the same tenant cannot both read quota
// counts below the limit.
type TxRunner interface {
	InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(Bundle) error) error
}

type txRunner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTxRunner(pool *pgxpool.Pool, logger *slog.Logger) TxRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &txRunner{pool: pool, logger: logger}
}

func (r *txRunner) InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(Bundle) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error("tx begin failed", "tenant_id", tenantID, "error", err)
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Advisory lock held until commit/rollback serializes runs per tenant.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, tenantID); err != nil {
		r.logger.Error("tenant advisory lock failed", "tenant_id", tenantID, "error", err)
		return err
	}

	if err := fn(NewBundle(tx, r.logger)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
