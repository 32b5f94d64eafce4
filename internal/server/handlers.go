package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/preventio/duerp-import/constants"
	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/pipeline"
)

// maxUploadBytes bounds the multipart upload body.
const maxUploadBytes = 32 << 20

func withTenant(ctx context.Context, tc common.TenantContext) context.Context {
	return context.WithValue(ctx, tenantCtxKey, tc)
}

func tenantFrom(r *http.Request) common.TenantContext {
	tc, _ := r.Context().Value(tenantCtxKey).(common.TenantContext)
	return tc
}

// handleUpload accepts a multipart form with a "file" part, an optional
// "format" field (derived from the file extension when absent), and an
// optional "mapped_data" JSON field carrying a pre-mapped structure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	format, err := resolveFormat(r.FormValue("format"), header)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file part")
		return
	}

	var mapped *entity.Structure
	if raw := r.FormValue("mapped_data"); raw != "" {
		mapped = &entity.Structure{}
		if err := json.Unmarshal([]byte(raw), mapped); err != nil {
			writeError(w, http.StatusBadRequest, "mapped_data is not valid JSON")
			return
		}
	}

	imp, err := s.processor.UploadDocument(r.Context(), tc, pipeline.UploadRequest{
		FileName:   header.Filename,
		Format:     format,
		Data:       data,
		MappedData: mapped,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, imp)
}

func resolveFormat(field string, header *multipart.FileHeader) (constants.ImportFormat, error) {
	if field != "" {
		format, ok := constants.ParseFormat(field)
		if !ok {
			return "", common.WrapError(common.ErrInvalidInput, fmt.Sprintf("unsupported format %q", field))
		}
		return format, nil
	}
	format := constants.MapExtToFormat(filepath.Ext(header.Filename))
	if format == "" {
		return "", common.WrapError(common.ErrInvalidInput, fmt.Sprintf("unsupported file extension %q", filepath.Ext(header.Filename)))
	}
	return format, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	imports, err := s.processor.ListImports(r.Context(), tc)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": imports})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	id, err := parseImportID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "import id must be a UUID")
		return
	}
	imp, err := s.processor.GetImport(r.Context(), tc, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imp)
}

// handleValidate takes the human-approved structure in the request body and
// runs materialization. Row-level failures appear inside the returned stats;
// a hard error (quota, missing company) fails the request instead.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	id, err := parseImportID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "import id must be a UUID")
		return
	}

	var body struct {
		ValidatedData *entity.Structure `json:"validated_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	stats, err := s.processor.ValidateImport(r.Context(), tc, id, body.ValidatedData)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	id, err := parseImportID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "import id must be a UUID")
		return
	}
	suggestions, err := s.processor.EnrichImport(r.Context(), tc, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	id, err := parseImportID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "import id must be a UUID")
		return
	}
	if err := s.processor.DeleteImport(r.Context(), tc, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
