package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/llm"
	"github.com/preventio/duerp-import/internal/materialize"
	"github.com/preventio/duerp-import/internal/repository"
	"github.com/preventio/duerp-import/internal/storage"
)

// Processor coordinates the import workflow: upload (blob + extraction +
// structuring), human validation into materialized entities, enrichment,
// and deletion. One synchronous request-scoped run per operation; there is
// no background queue.
type Processor struct {
	Logger    *slog.Logger
	Store     storage.BlobStore
	Imports   repository.ImportRepository
	Companies repository.CompanyRepository
	Extract   *ExtractStage
	Structure *StructureStage
	Engine    *materialize.Engine
	Enricher  llm.Enricher
}

func NewProcessor(
	logger *slog.Logger,
	store storage.BlobStore,
	imports repository.ImportRepository,
	companies repository.CompanyRepository,
	extract *ExtractStage,
	structure *StructureStage,
	engine *materialize.Engine,
	enricher llm.Enricher,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:    logger,
		Store:     store,
		Imports:   imports,
		Companies: companies,
		Extract:   extract,
		Structure: structure,
		Engine:    engine,
		Enricher:  enricher,
	}
}

// UploadRequest carries one uploaded document.
type UploadRequest struct {
	FileName   string
	Format     constants.ImportFormat
	Data       []byte
	MappedData *entity.Structure // optional pre-mapped structure; skips the AI call
}

// UploadDocument stores the blob, creates the ledger, and runs extraction
// plus structuring inline. The returned import is VALIDATED on success;
// any stage failure moves the ledger to FAILED and returns the error.
func (p *Processor) UploadDocument(ctx context.Context, tc common.TenantContext, req UploadRequest) (*entity.Import, error) {
	if len(req.Data) == 0 {
		return nil, common.WrapError(common.ErrInvalidInput, "file is empty")
	}
	if strings.TrimSpace(req.FileName) == "" {
		return nil, common.WrapError(common.ErrInvalidInput, "file name is required")
	}

	path, err := p.Store.Put(ctx, tc.TenantID, req.FileName, req.Data)
	if err != nil {
		return nil, err
	}

	imp, err := p.Imports.Create(ctx, tc.TenantID, tc.UserID, req.Format, req.FileName, len(req.Data), path)
	if err != nil {
		return nil, err
	}

	res, err := p.Extract.Run(ctx, imp)
	if err != nil {
		_ = p.Imports.Fail(ctx, imp.ID, err.Error())
		return p.Imports.GetByID(ctx, tc.TenantID, imp.ID)
	}

	if _, err := p.Structure.Run(ctx, tc, imp, res, req.MappedData); err != nil {
		_ = p.Imports.Fail(ctx, imp.ID, err.Error())
		return p.Imports.GetByID(ctx, tc.TenantID, imp.ID)
	}

	return p.Imports.GetByID(ctx, tc.TenantID, imp.ID)
}

// GetImport returns one import scoped to the tenant.
func (p *Processor) GetImport(ctx context.Context, tc common.TenantContext, id uuid.UUID) (*entity.Import, error) {
	return p.Imports.GetByID(ctx, tc.TenantID, id)
}

// ListImports returns the tenant's imports, newest first.
func (p *Processor) ListImports(ctx context.Context, tc common.TenantContext) ([]*entity.Import, error) {
	return p.Imports.ListByTenant(ctx, tc.TenantID)
}

// ValidateImport runs the materialization engine over the human-approved
// structure. Only legal while the import is ANALYZING or VALIDATED. A hard
// quota/not-found error rolls back the run, moves the ledger to FAILED,
// and is returned; row-level failures come back inside the stats.
func (p *Processor) ValidateImport(ctx context.Context, tc common.TenantContext, id uuid.UUID, validated *entity.Structure) (*entity.ImportStats, error) {
	imp, err := p.Imports.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !imp.Status.Validatable() {
		return nil, &common.StateError{Status: string(imp.Status), Op: "validate"}
	}
	if validated == nil {
		return nil, common.WrapError(common.ErrInvalidInput, "validated structure is required")
	}

	stats, err := p.Engine.Materialize(ctx, tc, imp.ID, validated)
	if err != nil {
		_ = p.Imports.Fail(ctx, imp.ID, err.Error())
		return nil, err
	}
	return stats, nil
}

// EnrichImport runs the optional second AI pass over a completed import's
// validated structure, using the resolved company's sector as context.
func (p *Processor) EnrichImport(ctx context.Context, tc common.TenantContext, id uuid.UUID) (*llm.EnrichSuggestions, error) {
	imp, err := p.Imports.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if imp.Status != constants.StatusCompleted {
		return nil, &common.StateError{Status: string(imp.Status), Op: "enrich"}
	}
	if imp.ValidatedData == nil {
		return nil, &common.NotFoundError{Resource: "validated structure", Key: id.String()}
	}

	sector := ""
	if company, err := p.resolveEnrichCompany(ctx, tc, imp.ValidatedData); err == nil && company != nil && company.Sector != nil {
		sector = *company.Sector
	}

	return p.Enricher.Enrich(ctx, llm.EnrichRequest{Structure: imp.ValidatedData, Sector: sector})
}

// DeleteImport removes the blob (best-effort) and the ledger row.
func (p *Processor) DeleteImport(ctx context.Context, tc common.TenantContext, id uuid.UUID) error {
	imp, err := p.Imports.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return err
	}
	if err := p.Store.Delete(ctx, imp.FileURL); err != nil {
		p.Logger.Warn("pipeline.delete.blob_failed", "import_id", id, "error", err)
	}
	return p.Imports.Delete(ctx, tc.TenantID, id)
}

func (p *Processor) resolveEnrichCompany(ctx context.Context, tc common.TenantContext, s *entity.Structure) (*entity.Company, error) {
	if s.Company != nil {
		if siret := strings.TrimSpace(s.Company.SIRET); siret != "" {
			if c, err := p.Companies.GetBySIRET(ctx, tc.TenantID, siret); err == nil && c != nil {
				return c, nil
			}
		}
		if c, err := p.Companies.GetByLegalName(ctx, tc.TenantID, s.Company.LegalName); err == nil && c != nil {
			return c, nil
		}
	}
	return p.Companies.First(ctx, tc.TenantID)
}
