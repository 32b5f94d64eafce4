package llm

import (
	"context"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/entity"
)

// StructureRequest carries everything the AI structuring call needs: the
// extracted plain text, the declared format, the caller's extraction tier,
// and hints for the prompt.
type StructureRequest struct {
	Text         string
	Format       constants.ImportFormat
	Tier         constants.AITier
	FilenameHint string
	TenantName   string
}

// Structurer is the AI structuring contract the pipeline depends on:
// plain text in, candidate Structure out, plus the raw model JSON for the
// ledger. Tier "none" never reaches a Structurer; the pipeline short-circuits
// to an empty structure with confidence 0.
type Structurer interface {
	Structure(ctx context.Context, req StructureRequest) (*entity.Structure, []byte, error)
}

// EnrichRequest is the optional second pass over an already-completed
// import: the persisted validated structure plus the company's sector.
type EnrichRequest struct {
	Structure *entity.Structure
	Sector    string
}

// EnrichSuggestions are additional rows the model proposes; they are never
// persisted automatically.
type EnrichSuggestions struct {
	Risks    []entity.StructureRisk    `json:"risks"`
	Measures []entity.StructureMeasure `json:"measures"`
}

// Enricher is the enrichment-service contract.
type Enricher interface {
	Enrich(ctx context.Context, req EnrichRequest) (*EnrichSuggestions, error)
}
