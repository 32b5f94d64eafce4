package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/extract"
	"github.com/preventio/duerp-import/internal/llm"
	"github.com/preventio/duerp-import/internal/repository"
)

// StructureStage obtains the candidate Structure and attaches it to the
// ledger, advancing ANALYZING to VALIDATED. Three paths:
//   - caller supplied mapped data: used as-is with confidence 1.0, no AI call;
//   - plan tier "none": empty structure, confidence 0 — the human fills
//     everything during validation;
//   - otherwise: the AI structuring call, whose failure is fatal.
type StructureStage struct {
	Structurer llm.Structurer
	Imports    repository.ImportRepository
	Logger     *slog.Logger
}

func NewStructureStage(structurer llm.Structurer, imports repository.ImportRepository, logger *slog.Logger) *StructureStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructureStage{Structurer: structurer, Imports: imports, Logger: logger}
}

func (p *StructureStage) Run(ctx context.Context, tc common.TenantContext, imp *entity.Import, res extract.Result, mapped *entity.Structure) (*entity.ExtractionData, error) {
	tier := tc.Limits().HasAIExtraction

	var candidate *entity.Structure
	switch {
	case mapped != nil:
		mapped.Confidence = 1.0
		candidate = mapped
		p.Logger.Info("pipeline.structure.mapped", "import_id", imp.ID)
	case tier == constants.AITierNone:
		candidate = &entity.Structure{
			WorkUnits: []entity.StructureUnit{},
			Risks:     []entity.StructureRisk{},
			Measures:  []entity.StructureMeasure{},
		}
		p.Logger.Info("pipeline.structure.skipped", "import_id", imp.ID, "tier", tier)
	default:
		s, _, err := p.Structurer.Structure(ctx, llm.StructureRequest{
			Text:         res.Text,
			Format:       imp.Format,
			Tier:         tier,
			FilenameHint: imp.FileName,
		})
		if err != nil {
			p.Logger.Error("pipeline.structure.failed", "import_id", imp.ID, "error", err)
			return nil, err
		}
		candidate = s
	}

	var md json.RawMessage
	if len(res.Metadata) > 0 {
		if b, err := json.Marshal(res.Metadata); err == nil {
			md = b
		}
	}
	data := &entity.ExtractionData{
		PlainText:      res.Text,
		FormatMetadata: md,
		Structure:      candidate,
	}
	if err := p.Imports.AttachExtraction(ctx, imp.ID, data); err != nil {
		return nil, err
	}

	p.Logger.Info("pipeline.structure.ok",
		"import_id", imp.ID,
		"confidence", candidate.Confidence,
		"work_units", len(candidate.WorkUnits),
		"risks", len(candidate.Risks),
	)
	return data, nil
}
