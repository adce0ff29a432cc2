package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quotesync/quotesync/internal/platform/logging"
)

const (
	// HeaderRequestID is the header carrying the per-request ID.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID is the header carrying the correlation ID. Unlike
	// the request ID it survives across service hops, tying one business
	// transaction together.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin context key for the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key for the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// idPolicy describes how one tracked ID is extracted, stored, and logged.
type idPolicy struct {
	header string
	ginKey string
	enrich func(ctx context.Context, id string) context.Context
}

// trackID returns middleware that reads the ID from the request header,
// generates a UUID when absent, echoes it on the response, stores it in the
// gin context, and enriches the request context per the policy.
func trackID(p idPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(p.header)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(p.ginKey, id)
		c.Header(p.header, id)

		ctx := p.enrich(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestID returns middleware that tracks the per-request ID. The ID ends
// up in the response header, the gin context, the request context (for the
// outbound client), and the request-scoped logger.
func RequestID() gin.HandlerFunc {
	return trackID(idPolicy{
		header: HeaderRequestID,
		ginKey: ContextKeyRequestID,
		enrich: func(ctx context.Context, id string) context.Context {
			return logging.WithRequestID(ContextWithRequestID(ctx, id), id)
		},
	})
}

// CorrelationID returns middleware that tracks the correlation ID, either
// propagated from upstream or minted here at the transaction origin.
func CorrelationID() gin.HandlerFunc {
	return trackID(idPolicy{
		header: HeaderCorrelationID,
		ginKey: ContextKeyCorrelationID,
		enrich: func(ctx context.Context, id string) context.Context {
			return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
		},
	})
}

// GetRequestID extracts the request ID from the gin context, or "".
func GetRequestID(c *gin.Context) string {
	return ginValue(c, ContextKeyRequestID)
}

// MustGetRequestID extracts the request ID, or "unknown" when the
// middleware did not run.
func MustGetRequestID(c *gin.Context) string {
	if id := GetRequestID(c); id != "" {
		return id
	}

	return "unknown"
}

// GetCorrelationID extracts the correlation ID from the gin context, or "".
func GetCorrelationID(c *gin.Context) string {
	return ginValue(c, ContextKeyCorrelationID)
}

// MustGetCorrelationID extracts the correlation ID, or "unknown" when the
// middleware did not run.
func MustGetCorrelationID(c *gin.Context) string {
	if id := GetCorrelationID(c); id != "" {
		return id
	}

	return "unknown"
}

// ginValue reads a string value from the gin context by key.
func ginValue(c *gin.Context, key string) string {
	if v, exists := c.Get(key); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return ""
}
