package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/constants"
)

// Import represents one import's ledger row for data transfer between layers.
type Import struct {
	ID             uuid.UUID              `json:"id"`
	TenantID       uuid.UUID              `json:"tenant_id"`
	UserID         uuid.UUID              `json:"user_id"`
	Status         constants.ImportStatus `json:"status"`
	Format         constants.ImportFormat `json:"format"`
	FileName       string                 `json:"file_name"`
	FileSize       int                    `json:"file_size"`
	FileURL        string                 `json:"file_url"` // opaque blob reference
	ExtractionData *ExtractionData        `json:"extraction_data,omitempty"`
	ValidatedData  *Structure             `json:"validated_data,omitempty"`
	Stats          *ImportStats           `json:"stats,omitempty"`
	ErrorMessage   *string                `json:"error_message,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ExtractionData is what the extraction + structuring stages attach to the
// ledger: the raw text, format-specific metadata, and the AI candidate.
type ExtractionData struct {
	PlainText      string          `json:"plain_text"`
	FormatMetadata json.RawMessage `json:"format_metadata,omitempty"`
	Structure      *Structure      `json:"structure,omitempty"`
}

// ImportStats is the outcome of one materialization run: per-entity-type
// counts plus the accumulated non-fatal row errors, in input order.
type ImportStats struct {
	Companies   int        `json:"companies"`
	Sites       int        `json:"sites"`
	WorkUnits   int        `json:"work_units"`
	Risks       int        `json:"risks"`
	ActionPlans int        `json:"action_plans"`
	Errors      []RowError `json:"errors,omitempty"`
}

// RowError is a non-fatal failure to materialize one risk or measure row,
// recorded in stats while processing continues.
type RowError struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
