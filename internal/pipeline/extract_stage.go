package pipeline

import (
	"context"
	"log/slog"

	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/extract"
	"github.com/preventio/duerp-import/internal/repository"
	"github.com/preventio/duerp-import/internal/storage"
)

// ExtractStage fetches the stored blob and runs the format's extractor,
// advancing the ledger from UPLOADING to ANALYZING. Extraction failure is
// fatal for the import.
type ExtractStage struct {
	Store   storage.BlobStore
	Imports repository.ImportRepository
	Logger  *slog.Logger
}

func NewExtractStage(store storage.BlobStore, imports repository.ImportRepository, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Store: store, Imports: imports, Logger: logger}
}

func (p *ExtractStage) Run(ctx context.Context, imp *entity.Import) (extract.Result, error) {
	data, err := p.Store.Get(ctx, imp.FileURL)
	if err != nil {
		p.Logger.Error("pipeline.extract.blob_fetch_failed", "import_id", imp.ID, "error", err)
		return extract.Result{}, err
	}

	res, err := extract.Run(ctx, imp.Format, data)
	if err != nil {
		p.Logger.Error("pipeline.extract.failed", "import_id", imp.ID, "format", imp.Format, "error", err)
		return extract.Result{}, err
	}

	if err := p.Imports.MarkAnalyzing(ctx, imp.ID); err != nil {
		return extract.Result{}, err
	}

	p.Logger.Info("pipeline.extract.ok",
		"import_id", imp.ID,
		"format", imp.Format,
		"text_len", len(res.Text),
		"warnings", len(res.Warnings),
	)
	return res, nil
}
