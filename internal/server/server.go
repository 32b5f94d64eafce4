package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/pipeline"
)

// Server exposes the import pipeline over HTTP. Tenant, user, and plan
// identity arrive as headers injected by the fronting auth layer.
type Server struct {
	processor *pipeline.Processor
	logger    *slog.Logger
}

func New(processor *pipeline.Processor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{processor: processor, logger: logger}
}

// Routes mounts the import endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1/imports", func(r chi.Router) {
		r.Use(s.tenantContext)
		r.Post("/", s.handleUpload)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Post("/{id}/validate", s.handleValidate)
		r.Post("/{id}/enrich", s.handleEnrich)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ctxKey string

const tenantCtxKey ctxKey = "tenant_ctx"

// tenantContext builds the immutable TenantContext from identity headers;
// requests without a tenant are rejected before reaching a handler.
func (s *Server) tenantContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.Parse(r.Header.Get("X-Tenant-ID"))
		if err != nil {
			s.logger.Error("request missing tenant identity", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "X-Tenant-ID header must be a UUID")
			return
		}
		userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "X-User-ID header must be a UUID")
			return
		}
		tc := common.TenantContext{
			TenantID: tenantID,
			UserID:   userID,
			PlanID:   r.Header.Get("X-Plan-ID"),
		}
		next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), tc)))
	})
}

func parseImportID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the pipeline's error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var quota *common.QuotaExceededError
	if errors.As(err, &quota) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":          quota.Error(),
			"entity_type":    quota.EntityType,
			"current":        quota.Current,
			"limit":          quota.Limit,
			"suggested_plan": quota.SuggestedPlan,
		})
		return
	}
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		var se *common.StructuringError
		var ee *common.ExtractionError
		if errors.As(err, &se) || errors.As(err, &ee) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
