package materialize

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
)

var errCreateRefused = errors.New("create refused")

func testTenant(plan string) common.TenantContext {
	return common.TenantContext{TenantID: uuid.New(), UserID: uuid.New(), PlanID: plan}
}

func globalHazard(label string, keywords ...string) *entity.HazardReference {
	return &entity.HazardReference{ID: uuid.New(), Label: label, Keywords: keywords}
}

func TestMaterializeFullStructure(t *testing.T) {
	m := newMemStore()
	m.hazards = []*entity.HazardReference{
		globalHazard("Chute de hauteur", "chute", "hauteur"),
		globalHazard("Bruit", "bruit", "sonore"),
	}
	engine := NewEngine(&fakeRunner{m: m}, nil)
	tc := testTenant("pro")

	s := &entity.Structure{
		Company: &entity.StructureCompany{LegalName: "Menuiserie Dupont", SIRET: "12345678900011"},
		WorkUnits: []entity.StructureUnit{
			{Name: "Atelier", ExposedCount: 4},
			{Name: "Bureau"},
		},
		Risks: []entity.StructureRisk{
			{WorkUnitName: "Atelier", Hazard: "chute de hauteur", Frequency: 3, Probability: 3, Severity: 4, Control: 2},
			{WorkUnitName: "Bureau", Hazard: "bruit", Frequency: 1, Probability: 2, Severity: 2, Control: 1},
			{WorkUnitName: "Atelier", Hazard: "poussières de bois", Frequency: 2, Probability: 2, Severity: 3, Control: 2},
		},
		Measures: []entity.StructureMeasure{
			{Description: "Installer des garde-corps", Type: "collective"},
		},
	}

	stats, err := engine.Materialize(context.Background(), tc, uuid.New(), s)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Companies)
	assert.Equal(t, 1, stats.Sites)
	assert.Equal(t, 2, stats.WorkUnits)
	assert.Equal(t, 3, stats.Risks)
	assert.Equal(t, 1, stats.ActionPlans)
	assert.Empty(t, stats.Errors)

	// unknown hazard created a tenant-scoped custom reference
	var custom *entity.HazardReference
	for _, h := range m.hazards {
		if h.Custom {
			custom = h
		}
	}
	require.NotNil(t, custom)
	assert.Equal(t, "poussières de bois", custom.Label)
	require.NotNil(t, custom.TenantID)
	assert.Equal(t, tc.TenantID, *custom.TenantID)

	// lazily created main site
	require.Len(t, m.sites, 1)
	assert.Equal(t, DefaultMainSiteName, m.sites[0].Name)
	assert.True(t, m.sites[0].IsMain)

	// ledger completed inside the run
	require.Len(t, m.completed, 1)
}

func TestMaterializeScoreAndPriority(t *testing.T) {
	m := newMemStore()
	m.hazards = []*entity.HazardReference{globalHazard("Bruit", "bruit")}
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{{Name: "Atelier"}},
		Risks: []entity.StructureRisk{
			// out-of-range factors clamp to 1..4 before scoring
			{WorkUnitName: "Atelier", Hazard: "bruit", Frequency: 0, Probability: 9, Severity: 4, Control: 4},
		},
	}

	stats, err := engine.Materialize(context.Background(), testTenant("enterprise"), uuid.New(), s)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Risks)

	ra := m.createdRisks[0]
	assert.Equal(t, 1, ra.Frequency)
	assert.Equal(t, 4, ra.Probability)
	assert.Equal(t, 64, ra.Score)
	assert.Equal(t, constants.PriorityMedium, ra.Priority)
}

func TestMaterializeRowErrorsDoNotAbort(t *testing.T) {
	m := newMemStore()
	m.hazards = []*entity.HazardReference{globalHazard("Bruit", "bruit")}
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{{Name: "Atelier"}},
		Risks: []entity.StructureRisk{
			{WorkUnitName: "Atelier", Hazard: "", Frequency: 1, Probability: 1, Severity: 1, Control: 1},
			{WorkUnitName: "Atelier", Hazard: "bruit", Frequency: 2, Probability: 2, Severity: 2, Control: 2},
			{WorkUnitName: "Chantier", Hazard: "bruit", Frequency: 2, Probability: 2, Severity: 2, Control: 2},
		},
	}

	stats, err := engine.Materialize(context.Background(), testTenant("pro"), uuid.New(), s)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Risks)
	require.Len(t, stats.Errors, 2)
	// error order follows input row order
	assert.Equal(t, 1, stats.Errors[0].Row)
	assert.Contains(t, stats.Errors[0].Message, "missing hazard")
	assert.Equal(t, 3, stats.Errors[1].Row)
	assert.Contains(t, stats.Errors[1].Message, "Chantier")

	// partial success still completes the import
	require.Len(t, m.completed, 1)
}

func TestMaterializeWorkUnitQuotaCountsOnlyNewUnits(t *testing.T) {
	// starter allows 5 work units; 4 exist, the structure names one of them
	// plus one new unit, so the single new unit fits.
	m := newMemStore()
	m.hazards = []*entity.HazardReference{globalHazard("Bruit", "bruit")}
	engine := NewEngine(&fakeRunner{m: m}, nil)
	tc := testTenant("starter")

	company := &entity.Company{ID: uuid.New(), TenantID: tc.TenantID, LegalName: "Acme"}
	site := &entity.Site{ID: uuid.New(), TenantID: tc.TenantID, CompanyID: company.ID, Name: "Site principal", IsMain: true}
	m.companies = append(m.companies, company)
	m.sites = append(m.sites, site)
	for _, name := range []string{"Atelier", "Bureau", "Entrepôt", "Quai"} {
		m.workUnits = append(m.workUnits, &entity.WorkUnit{
			ID: uuid.New(), TenantID: tc.TenantID, SiteID: site.ID, Name: name,
		})
	}

	s := &entity.Structure{
		Company: &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{
			{Name: "atelier"}, // existing, case-insensitive
			{Name: "Laboratoire"},
		},
	}

	stats, err := engine.Materialize(context.Background(), tc, uuid.New(), s)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Companies)
	assert.Equal(t, 0, stats.Sites)
	assert.Equal(t, 1, stats.WorkUnits)
}

func TestMaterializeWorkUnitQuotaExceeded(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(&fakeRunner{m: m}, nil)
	tc := testTenant("starter")

	units := make([]entity.StructureUnit, 6)
	for i := range units {
		units[i] = entity.StructureUnit{Name: string(rune('A' + i))}
	}
	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: units,
	}

	_, err := engine.Materialize(context.Background(), tc, uuid.New(), s)
	var quota *common.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, "work_units", quota.EntityType)
	assert.Equal(t, 5, quota.Limit)
	assert.Equal(t, "pro", quota.SuggestedPlan)

	// hard failure creates nothing and never completes the ledger
	assert.Empty(t, m.workUnits)
	assert.Empty(t, m.completed)
}

func TestMaterializeMonthlyRiskQuotaFailsWholeBatch(t *testing.T) {
	m := newMemStore()
	m.hazards = []*entity.HazardReference{globalHazard("Bruit", "bruit")}
	m.riskCount = 49 // starter allows 50/month
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{{Name: "Atelier"}},
		Risks: []entity.StructureRisk{
			{WorkUnitName: "Atelier", Hazard: "bruit", Frequency: 1, Probability: 1, Severity: 1, Control: 1},
			{WorkUnitName: "Atelier", Hazard: "bruit", Frequency: 1, Probability: 1, Severity: 1, Control: 1},
		},
	}

	_, err := engine.Materialize(context.Background(), testTenant("starter"), uuid.New(), s)
	var quota *common.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, "risks", quota.EntityType)
	// whole batch refused, not 49+1 accepted
	assert.Empty(t, m.createdRisks)
}

func TestMaterializeNoCompanyFallsBackToFirst(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(&fakeRunner{m: m}, nil)
	tc := testTenant("pro")

	existing := &entity.Company{ID: uuid.New(), TenantID: tc.TenantID, LegalName: "Acme"}
	m.companies = append(m.companies, existing)

	s := &entity.Structure{WorkUnits: []entity.StructureUnit{{Name: "Atelier"}}}
	stats, err := engine.Materialize(context.Background(), tc, uuid.New(), s)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Companies)
	require.Len(t, m.sites, 1)
	assert.Equal(t, existing.ID, m.sites[0].CompanyID)
}

func TestMaterializeNoCompanyAnywhereIsHardNotFound(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{WorkUnits: []entity.StructureUnit{{Name: "Atelier"}}}
	_, err := engine.Materialize(context.Background(), testTenant("pro"), uuid.New(), s)
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, m.completed)
}

func TestMaterializeMeasuresAttachToFirstUnit(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{{Name: "Atelier"}, {Name: "Bureau"}},
		Measures: []entity.StructureMeasure{
			{Description: "Former le personnel"},
			{Description: ""},
		},
	}

	stats, err := engine.Materialize(context.Background(), testTenant("pro"), uuid.New(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActionPlans)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "measure", stats.Errors[0].Kind)
	assert.Equal(t, 2, stats.Errors[0].Row)

	require.Len(t, m.createdPlans, 1)
	ap := m.createdPlans[0]
	assert.Equal(t, m.workUnits[0].ID, ap.WorkUnitID)
	assert.Equal(t, constants.DefaultActionPriority, ap.Priority)
	assert.Equal(t, constants.DefaultActionStatus, ap.Status)
}

func TestMaterializeRowCreateFailureIsRowError(t *testing.T) {
	m := newMemStore()
	m.hazards = []*entity.HazardReference{globalHazard("Bruit", "bruit")}
	m.failCreates["risk"] = true
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{{Name: "Atelier"}},
		Risks: []entity.StructureRisk{
			{WorkUnitName: "Atelier", Hazard: "bruit", Frequency: 1, Probability: 1, Severity: 1, Control: 1},
		},
	}

	stats, err := engine.Materialize(context.Background(), testTenant("pro"), uuid.New(), s)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Risks)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0].Message, "create failed")
}

func TestMaterializeIdempotentHazardWithinRun(t *testing.T) {
	m := newMemStore()
	engine := NewEngine(&fakeRunner{m: m}, nil)

	s := &entity.Structure{
		Company:   &entity.StructureCompany{LegalName: "Acme"},
		WorkUnits: []entity.StructureUnit{{Name: "Atelier"}},
		Risks: []entity.StructureRisk{
			{WorkUnitName: "Atelier", Hazard: "Chute de hauteur", Frequency: 1, Probability: 1, Severity: 1, Control: 1},
			{WorkUnitName: "Atelier", Hazard: "chute de hauteur", Frequency: 2, Probability: 2, Severity: 2, Control: 2},
		},
	}

	stats, err := engine.Materialize(context.Background(), testTenant("pro"), uuid.New(), s)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Risks)

	// both rows share the single custom reference created by the first
	require.Len(t, m.hazards, 1)
	assert.Equal(t, m.hazards[0].ID, m.createdRisks[0].HazardID)
	assert.Equal(t, m.hazards[0].ID, m.createdRisks[1].HazardID)
}
