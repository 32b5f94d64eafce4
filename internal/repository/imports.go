package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
)

type ImportRepository interface {
	Create(ctx context.Context, tenantID, userID uuid.UUID, format constants.ImportFormat, fileName string, fileSize int, fileURL string) (*entity.Import, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Import, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Import, error)
	MarkAnalyzing(ctx context.Context, id uuid.UUID) error
	AttachExtraction(ctx context.Context, id uuid.UUID, data *entity.ExtractionData) error
	Complete(ctx context.Context, id uuid.UUID, validated *entity.Structure, stats *entity.ImportStats) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type importRepo struct {
	q      Querier
	logger *slog.Logger
}

func NewImportRepository(q Querier, logger *slog.Logger) ImportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &importRepo{q: q, logger: logger}
}

const importColumns = `id, tenant_id, user_id, status, format, file_name, file_size, file_url,
	extraction_data, validated_data, stats, error_message, created_at, updated_at`

func (r *importRepo) Create(ctx context.Context, tenantID, userID uuid.UUID, format constants.ImportFormat, fileName string, fileSize int, fileURL string) (*entity.Import, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO imports (tenant_id, user_id, status, format, file_name, file_size, file_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+importColumns,
		tenantID, userID, constants.StatusUploading, format, fileName, fileSize, fileURL)
	imp, err := scanImport(row)
	if err != nil {
		r.logger.Error("import create failed", "tenant_id", tenantID, "file_name", fileName, "error", err)
		return nil, err
	}
	r.logger.Info("import created", "import_id", imp.ID, "tenant_id", tenantID, "format", format, "file_name", fileName)
	return imp, nil
}

func (r *importRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Import, error) {
	row := r.q.QueryRow(ctx, `SELECT `+importColumns+` FROM imports WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	imp, err := scanImport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "import", Key: id.String()}
	}
	if err != nil {
		r.logger.Error("import get failed", "import_id", id, "error", err)
		return nil, err
	}
	return imp, nil
}

func (r *importRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entity.Import, error) {
	rows, err := r.q.Query(ctx, `SELECT `+importColumns+` FROM imports WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		r.logger.Error("import list failed", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

func (r *importRepo) MarkAnalyzing(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, constants.StatusUploading, constants.StatusAnalyzing)
}

// AttachExtraction stores the extraction payload and moves the ledger out of
// ANALYZING toward VALIDATED.
func (r *importRepo) AttachExtraction(ctx context.Context, id uuid.UUID, data *entity.ExtractionData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE imports SET extraction_data = $2, status = $3, updated_at = now()
		WHERE id = $1 AND status = $4`,
		id, b, constants.StatusValidated, constants.StatusAnalyzing)
	if err != nil {
		r.logger.Error("import attach extraction failed", "import_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.NotFoundError{Resource: "import", Key: id.String()}
	}
	return nil
}

// Complete attaches the human-approved structure plus run stats and moves
// the ledger to its terminal COMPLETED state.
func (r *importRepo) Complete(ctx context.Context, id uuid.UUID, validated *entity.Structure, stats *entity.ImportStats) error {
	vb, err := json.Marshal(validated)
	if err != nil {
		return err
	}
	sb, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE imports SET validated_data = $2, stats = $3, status = $4, updated_at = now()
		WHERE id = $1 AND status IN ($5, $6)`,
		id, vb, sb, constants.StatusCompleted, constants.StatusAnalyzing, constants.StatusValidated)
	if err != nil {
		r.logger.Error("import complete failed", "import_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.NotFoundError{Resource: "import", Key: id.String()}
	}
	r.logger.Info("import completed", "import_id", id)
	return nil
}

// Fail moves any non-terminal import to FAILED; errorMessage is only ever
// written here.
func (r *importRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE imports SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1 AND status NOT IN ($4, $5)`,
		id, constants.StatusFailed, message, constants.StatusCompleted, constants.StatusFailed)
	if err != nil {
		r.logger.Error("import fail-transition failed", "import_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.NotFoundError{Resource: "import", Key: id.String()}
	}
	r.logger.Warn("import failed", "import_id", id, "error_message", message)
	return nil
}

func (r *importRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM imports WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		r.logger.Error("import delete failed", "import_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.NotFoundError{Resource: "import", Key: id.String()}
	}
	r.logger.Info("import deleted", "import_id", id)
	return nil
}

func (r *importRepo) setStatus(ctx context.Context, id uuid.UUID, from, to constants.ImportStatus) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE imports SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, to, from)
	if err != nil {
		r.logger.Error("import status update failed", "import_id", id, "to", to, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.NotFoundError{Resource: "import", Key: id.String()}
	}
	return nil
}

func scanImport(row pgx.Row) (*entity.Import, error) {
	var (
		imp        entity.Import
		extraction []byte
		validated  []byte
		stats      []byte
	)
	err := row.Scan(&imp.ID, &imp.TenantID, &imp.UserID, &imp.Status, &imp.Format,
		&imp.FileName, &imp.FileSize, &imp.FileURL,
		&extraction, &validated, &stats, &imp.ErrorMessage, &imp.CreatedAt, &imp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		var st entity.ImportStats
		if err := json.Unmarshal(stats, &st); err != nil {
			return nil, err
		}
		imp.Stats = &st
	}
	if len(extraction) > 0 {
		var d entity.ExtractionData
		if err := json.Unmarshal(extraction, &d); err != nil {
			return nil, err
		}
		imp.ExtractionData = &d
	}
	if len(validated) > 0 {
		var s entity.Structure
		if err := json.Unmarshal(validated, &s); err != nil {
			return nil, err
		}
		imp.ValidatedData = &s
	}
	return &imp, nil
}
