package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/repository"
)

// DefaultMainSiteName is the name given to lazily created main sites.
const DefaultMainSiteName = "Site principal"

// Engine turns a human-validated Structure into persisted domain entities:
// company, main site, work units, risk assessments, and action plans, in
// that order, each step gated by the plan quota for its entity type.
//
// The whole run executes inside one tenant-serialized transaction: a hard
// (quota or not-found) failure rolls everything back, while row-level
// failures are accumulated into the returned stats and never abort the
// batch. Rows are processed sequentially in input order, so the error list
// ordering matches the input.
type Engine struct {
	runner repository.TxRunner
	logger *slog.Logger
}

func NewEngine(runner repository.TxRunner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{runner: runner, logger: logger}
}

// Materialize runs the engine and, inside the same transaction, moves the
// import ledger to COMPLETED with the run stats. On a hard error the
// transaction rolls back and the error is returned; the caller decides the
// ledger's FAILED transition (it must survive the rollback).
func (e *Engine) Materialize(ctx context.Context, tc common.TenantContext, importID uuid.UUID, s *entity.Structure) (*entity.ImportStats, error) {
	var stats *entity.ImportStats
	err := e.runner.InTenantTx(ctx, tc.TenantID, func(r repository.Bundle) error {
		out, err := e.run(ctx, tc, r, s)
		if err != nil {
			return err
		}
		if err := r.Imports.Complete(ctx, importID, s, out); err != nil {
			return err
		}
		stats = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("materialize.ok",
		"import_id", importID,
		"tenant_id", tc.TenantID,
		"companies", stats.Companies,
		"sites", stats.Sites,
		"work_units", stats.WorkUnits,
		"risks", stats.Risks,
		"action_plans", stats.ActionPlans,
		"row_errors", len(stats.Errors),
	)
	return stats, nil
}

func (e *Engine) run(ctx context.Context, tc common.TenantContext, r repository.Bundle, s *entity.Structure) (*entity.ImportStats, error) {
	limits := tc.Limits()
	stats := &entity.ImportStats{}

	company, err := e.resolveCompany(ctx, tc, r, s.Company, limits, stats)
	if err != nil {
		return nil, err
	}

	site, err := e.resolveSite(ctx, tc, r, company, limits, stats)
	if err != nil {
		return nil, err
	}

	unitIDs, firstUnit, err := e.materializeWorkUnits(ctx, tc, r, site, s.WorkUnits, limits, stats)
	if err != nil {
		return nil, err
	}

	if err := e.materializeRisks(ctx, tc, r, unitIDs, s.Risks, limits, stats); err != nil {
		return nil, err
	}

	if err := e.materializeMeasures(ctx, tc, r, firstUnit, s.Measures, limits, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// resolveCompany finds the tenant's company by SIRET, then legal name,
// creating one (quota-gated) when the structure describes an unknown
// company. A structure with no company block falls back to the tenant's
// first company; having none is a hard NotFound.
func (e *Engine) resolveCompany(ctx context.Context, tc common.TenantContext, r repository.Bundle, sc *entity.StructureCompany, limits constants.PlanLimits, stats *entity.ImportStats) (*entity.Company, error) {
	if sc == nil {
		first, err := r.Companies.First(ctx, tc.TenantID)
		if err != nil {
			return nil, err
		}
		if first == nil {
			return nil, &common.NotFoundError{Resource: "company"}
		}
		return first, nil
	}

	if siret := strings.TrimSpace(sc.SIRET); siret != "" {
		found, err := r.Companies.GetBySIRET(ctx, tc.TenantID, siret)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	found, err := r.Companies.GetByLegalName(ctx, tc.TenantID, sc.LegalName)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	current, err := r.Companies.Count(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	if err := CheckQuota("companies", current, 1, limits.MaxCompanies, limits); err != nil {
		return nil, err
	}

	c := &entity.Company{TenantID: tc.TenantID, LegalName: strings.TrimSpace(sc.LegalName)}
	if siret := strings.TrimSpace(sc.SIRET); siret != "" {
		c.SIRET = &siret
	}
	if addr := strings.TrimSpace(sc.Address); addr != "" {
		c.Address = &addr
	}
	if sc.EmployeeCount > 0 {
		n := sc.EmployeeCount
		c.EmployeeCount = &n
	}
	created, err := r.Companies.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	stats.Companies++
	return created, nil
}

// resolveSite reuses the company's main site or lazily creates a default
// one, quota-gated.
func (e *Engine) resolveSite(ctx context.Context, tc common.TenantContext, r repository.Bundle, company *entity.Company, limits constants.PlanLimits, stats *entity.ImportStats) (*entity.Site, error) {
	site, err := r.Sites.MainByCompany(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	if site != nil {
		return site, nil
	}

	current, err := r.Sites.Count(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	if err := CheckQuota("sites", current, 1, limits.MaxSites, limits); err != nil {
		return nil, err
	}

	created, err := r.Sites.Create(ctx, &entity.Site{
		TenantID:  tc.TenantID,
		CompanyID: company.ID,
		Name:      DefaultMainSiteName,
		IsMain:    true,
	})
	if err != nil {
		return nil, err
	}
	stats.Sites++
	return created, nil
}

// materializeWorkUnits creates the structure's work units that do not
// already exist in the site (by case-insensitive name), after one quota
// check covering all new units. Returns the name->id map used by risk
// materialization and the first created-or-resolved unit id.
func (e *Engine) materializeWorkUnits(ctx context.Context, tc common.TenantContext, r repository.Bundle, site *entity.Site, units []entity.StructureUnit, limits constants.PlanLimits, stats *entity.ImportStats) (map[string]uuid.UUID, uuid.UUID, error) {
	existing, err := r.WorkUnits.ListBySite(ctx, site.ID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	unitIDs := make(map[string]uuid.UUID, len(existing)+len(units))
	var firstUnit uuid.UUID
	for _, wu := range existing {
		unitIDs[normalizeLabel(wu.Name)] = wu.ID
		if firstUnit == uuid.Nil {
			firstUnit = wu.ID
		}
	}

	var toCreate []entity.StructureUnit
	seen := map[string]struct{}{}
	for _, u := range units {
		key := normalizeLabel(u.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := unitIDs[key]; !ok {
			toCreate = append(toCreate, u)
		}
	}

	if len(toCreate) > 0 {
		current, err := r.WorkUnits.Count(ctx, tc.TenantID)
		if err != nil {
			return nil, uuid.Nil, err
		}
		if err := CheckQuota("work_units", current, len(toCreate), limits.MaxWorkUnits, limits); err != nil {
			return nil, uuid.Nil, err
		}
	}

	for _, u := range toCreate {
		wu := &entity.WorkUnit{TenantID: tc.TenantID, SiteID: site.ID, Name: strings.TrimSpace(u.Name)}
		if d := strings.TrimSpace(u.Description); d != "" {
			wu.Description = &d
		}
		if u.ExposedCount > 0 {
			n := u.ExposedCount
			wu.ExposedCount = &n
		}
		created, err := r.WorkUnits.Create(ctx, wu)
		if err != nil {
			return nil, uuid.Nil, err
		}
		unitIDs[normalizeLabel(created.Name)] = created.ID
		if firstUnit == uuid.Nil {
			firstUnit = created.ID
		}
		stats.WorkUnits++
	}

	// prefer the structure's own first unit as the action-plan target
	if len(units) > 0 {
		if id, ok := unitIDs[normalizeLabel(units[0].Name)]; ok {
			firstUnit = id
		}
	}
	return unitIDs, firstUnit, nil
}

// materializeRisks checks the monthly batch quota once up front, then
// processes rows sequentially; a malformed row or an unresolved work unit
// records a row error and processing continues.
func (e *Engine) materializeRisks(ctx context.Context, tc common.TenantContext, r repository.Bundle, unitIDs map[string]uuid.UUID, risks []entity.StructureRisk, limits constants.PlanLimits, stats *entity.ImportStats) error {
	if len(risks) == 0 {
		return nil
	}

	current, err := r.Risks.CountThisMonth(ctx, tc.TenantID)
	if err != nil {
		return err
	}
	if err := CheckQuota("risks", current, len(risks), limits.MaxRisksPerMonth, limits); err != nil {
		return err
	}

	resolver, err := newHazardResolver(ctx, tc.TenantID, r.Hazards)
	if err != nil {
		return err
	}

	for i, risk := range risks {
		rowErr := func(msg string) {
			stats.Errors = append(stats.Errors, entity.RowError{Row: i + 1, Kind: "risk", Message: msg})
		}

		if strings.TrimSpace(risk.Hazard) == "" {
			rowErr("missing hazard label")
			continue
		}
		if strings.TrimSpace(risk.WorkUnitName) == "" {
			rowErr("missing work unit name")
			continue
		}
		unitID, ok := unitIDs[normalizeLabel(risk.WorkUnitName)]
		if !ok {
			rowErr(fmt.Sprintf("unknown work unit %q", risk.WorkUnitName))
			continue
		}

		ref, err := resolver.Resolve(ctx, risk.Hazard)
		if err != nil {
			rowErr(fmt.Sprintf("hazard resolution failed: %v", err))
			continue
		}

		ra := &entity.RiskAssessment{
			TenantID:    tc.TenantID,
			WorkUnitID:  unitID,
			HazardID:    ref.ID,
			Frequency:   ClampCotation(risk.Frequency),
			Probability: ClampCotation(risk.Probability),
			Severity:    ClampCotation(risk.Severity),
			Control:     ClampCotation(risk.Control),
		}
		ra.Score = ra.Frequency * ra.Probability * ra.Severity * ra.Control
		ra.Priority = PriorityForScore(ra.Score)
		if v := strings.TrimSpace(risk.DangerousSituation); v != "" {
			ra.DangerousSituation = &v
		}
		if risk.ExposedPersons > 0 {
			n := risk.ExposedPersons
			ra.ExposedPersons = &n
		}
		if v := strings.TrimSpace(risk.ExistingMeasures); v != "" {
			ra.ExistingMeasures = &v
		}

		if _, err := r.Risks.Create(ctx, ra); err != nil {
			rowErr(fmt.Sprintf("create failed: %v", err))
			continue
		}
		stats.Risks++
	}
	return nil
}

// materializeMeasures attaches every measure to the first resolved work
// unit; the structure carries no per-measure targeting. Same monthly batch
// quota shape as risks; row errors accumulate.
func (e *Engine) materializeMeasures(ctx context.Context, tc common.TenantContext, r repository.Bundle, firstUnit uuid.UUID, measures []entity.StructureMeasure, limits constants.PlanLimits, stats *entity.ImportStats) error {
	if len(measures) == 0 {
		return nil
	}

	current, err := r.ActionPlans.CountThisMonth(ctx, tc.TenantID)
	if err != nil {
		return err
	}
	if err := CheckQuota("action_plans", current, len(measures), limits.MaxPlansPerMonth, limits); err != nil {
		return err
	}

	for i, m := range measures {
		rowErr := func(msg string) {
			stats.Errors = append(stats.Errors, entity.RowError{Row: i + 1, Kind: "measure", Message: msg})
		}

		if strings.TrimSpace(m.Description) == "" {
			rowErr("missing description")
			continue
		}
		if firstUnit == uuid.Nil {
			rowErr("no work unit to attach to")
			continue
		}

		ap := &entity.ActionPlan{
			TenantID:    tc.TenantID,
			WorkUnitID:  firstUnit,
			Description: strings.TrimSpace(m.Description),
			Priority:    constants.DefaultActionPriority,
			Status:      constants.DefaultActionStatus,
		}
		if t := strings.TrimSpace(m.Type); t != "" {
			ap.Type = &t
		}

		if _, err := r.ActionPlans.Create(ctx, ap); err != nil {
			rowErr(fmt.Sprintf("create failed: %v", err))
			continue
		}
		stats.ActionPlans++
	}
	return nil
}
