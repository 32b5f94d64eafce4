package materialize

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/repository"
)

// memStore is the in-memory backing for the fake repositories. One instance
// plays the database for a whole engine run.
type memStore struct {
	companies []*entity.Company
	sites     []*entity.Site
	workUnits []*entity.WorkUnit
	hazards   []*entity.HazardReference

	riskCount int // pre-existing assessments this month
	planCount int // pre-existing action plans this month

	createdRisks []*entity.RiskAssessment
	createdPlans []*entity.ActionPlan

	completed   []uuid.UUID
	failCreates map[string]bool // entity kind -> force Create error
}

func newMemStore() *memStore {
	return &memStore{failCreates: map[string]bool{}}
}

func (m *memStore) bundle() repository.Bundle {
	return repository.Bundle{
		Imports:     &fakeImports{m: m},
		Companies:   &fakeCompanies{m: m},
		Sites:       &fakeSites{m: m},
		WorkUnits:   &fakeWorkUnits{m: m},
		Hazards:     &fakeHazards{m: m},
		Risks:       &fakeRisks{m: m},
		ActionPlans: &fakeActionPlans{m: m},
	}
}

// fakeRunner hands the engine a bundle over the shared memStore; commit and
// rollback are out of scope here, hard-error propagation is what matters.
type fakeRunner struct{ m *memStore }

func (r *fakeRunner) InTenantTx(_ context.Context, _ uuid.UUID, fn func(repository.Bundle) error) error {
	return fn(r.m.bundle())
}

type fakeImports struct{ m *memStore }

func (f *fakeImports) Create(context.Context, uuid.UUID, uuid.UUID, constants.ImportFormat, string, int, string) (*entity.Import, error) {
	panic("not used")
}
func (f *fakeImports) GetByID(context.Context, uuid.UUID, uuid.UUID) (*entity.Import, error) {
	panic("not used")
}
func (f *fakeImports) ListByTenant(context.Context, uuid.UUID) ([]*entity.Import, error) {
	panic("not used")
}
func (f *fakeImports) MarkAnalyzing(context.Context, uuid.UUID) error { return nil }
func (f *fakeImports) AttachExtraction(context.Context, uuid.UUID, *entity.ExtractionData) error {
	return nil
}
func (f *fakeImports) Complete(_ context.Context, id uuid.UUID, _ *entity.Structure, _ *entity.ImportStats) error {
	f.m.completed = append(f.m.completed, id)
	return nil
}
func (f *fakeImports) Fail(context.Context, uuid.UUID, string) error    { return nil }
func (f *fakeImports) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fakeCompanies struct{ m *memStore }

func (f *fakeCompanies) GetBySIRET(_ context.Context, tenantID uuid.UUID, siret string) (*entity.Company, error) {
	for _, c := range f.m.companies {
		if c.TenantID == tenantID && c.SIRET != nil && *c.SIRET == siret {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanies) GetByLegalName(_ context.Context, tenantID uuid.UUID, legalName string) (*entity.Company, error) {
	for _, c := range f.m.companies {
		if c.TenantID == tenantID && strings.EqualFold(c.LegalName, legalName) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanies) First(_ context.Context, tenantID uuid.UUID) (*entity.Company, error) {
	for _, c := range f.m.companies {
		if c.TenantID == tenantID {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCompanies) Count(_ context.Context, tenantID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.m.companies {
		if c.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCompanies) Create(_ context.Context, c *entity.Company) (*entity.Company, error) {
	out := *c
	out.ID = uuid.New()
	f.m.companies = append(f.m.companies, &out)
	return &out, nil
}

type fakeSites struct{ m *memStore }

func (f *fakeSites) MainByCompany(_ context.Context, companyID uuid.UUID) (*entity.Site, error) {
	for _, s := range f.m.sites {
		if s.CompanyID == companyID && s.IsMain {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSites) Count(_ context.Context, tenantID uuid.UUID) (int, error) {
	n := 0
	for _, s := range f.m.sites {
		if s.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSites) Create(_ context.Context, s *entity.Site) (*entity.Site, error) {
	out := *s
	out.ID = uuid.New()
	f.m.sites = append(f.m.sites, &out)
	return &out, nil
}

type fakeWorkUnits struct{ m *memStore }

func (f *fakeWorkUnits) ListBySite(_ context.Context, siteID uuid.UUID) ([]*entity.WorkUnit, error) {
	var out []*entity.WorkUnit
	for _, wu := range f.m.workUnits {
		if wu.SiteID == siteID {
			out = append(out, wu)
		}
	}
	return out, nil
}

func (f *fakeWorkUnits) Count(_ context.Context, tenantID uuid.UUID) (int, error) {
	n := 0
	for _, wu := range f.m.workUnits {
		if wu.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeWorkUnits) Create(_ context.Context, wu *entity.WorkUnit) (*entity.WorkUnit, error) {
	out := *wu
	out.ID = uuid.New()
	f.m.workUnits = append(f.m.workUnits, &out)
	return &out, nil
}

type fakeHazards struct{ m *memStore }

func (f *fakeHazards) ListVisible(_ context.Context, tenantID uuid.UUID) ([]*entity.HazardReference, error) {
	var out []*entity.HazardReference
	for _, h := range f.m.hazards {
		if h.TenantID == nil || *h.TenantID == tenantID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHazards) Create(_ context.Context, h *entity.HazardReference) (*entity.HazardReference, error) {
	out := *h
	out.ID = uuid.New()
	f.m.hazards = append(f.m.hazards, &out)
	return &out, nil
}

type fakeRisks struct{ m *memStore }

func (f *fakeRisks) CountThisMonth(context.Context, uuid.UUID) (int, error) {
	return f.m.riskCount, nil
}

func (f *fakeRisks) Create(_ context.Context, ra *entity.RiskAssessment) (*entity.RiskAssessment, error) {
	if f.m.failCreates["risk"] {
		return nil, errCreateRefused
	}
	out := *ra
	out.ID = uuid.New()
	f.m.createdRisks = append(f.m.createdRisks, &out)
	return &out, nil
}

type fakeActionPlans struct{ m *memStore }

func (f *fakeActionPlans) CountThisMonth(context.Context, uuid.UUID) (int, error) {
	return f.m.planCount, nil
}

func (f *fakeActionPlans) Create(_ context.Context, ap *entity.ActionPlan) (*entity.ActionPlan, error) {
	if f.m.failCreates["action_plan"] {
		return nil, errCreateRefused
	}
	out := *ap
	out.ID = uuid.New()
	f.m.createdPlans = append(f.m.createdPlans, &out)
	return &out, nil
}
