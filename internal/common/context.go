package common

import (
	"context"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/constants"
)

// TenantContext is the immutable identity threaded explicitly through every
// pipeline and engine call: who is acting, for which tenant, under which
// plan. It is built once per request by the server layer.
type TenantContext struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	PlanID   string
}

// Limits resolves the caller's plan ceilings.
func (tc TenantContext) Limits() constants.PlanLimits {
	return constants.PlanLimitsFor(tc.PlanID)
}

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}
