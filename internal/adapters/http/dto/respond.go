package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotesync/quotesync/internal/domain"
	"github.com/quotesync/quotesync/internal/platform/logging"
)

// GetTraceID extracts the trace ID for error responses. The gin context key
// takes precedence; the X-Request-ID header is the fallback so responses
// stay correlatable even before the tracing middleware has run.
func GetTraceID(c *gin.Context) string {
	if v, exists := c.Get("trace_id"); exists {
		if s, ok := v.(string); ok {
			return s
		}

		return ""
	}

	return c.Request.Header.Get("X-Request-ID")
}

// MapDomainError maps a domain error to an HTTP status and error envelope.
// Unknown and storage errors become 500 with a generic message so internals
// never leak onto the wire.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{
				validationErr.Field: validationErr.Message,
			}
		}

		return http.StatusBadRequest, resp

	case domain.IsImport(err):
		code := ErrorCodeImportMalformed
		if kind, ok := domain.ImportKind(err); ok && kind == domain.ImportInvalidShape {
			code = ErrorCodeImportInvalidShape
		}

		return http.StatusBadRequest, NewErrorResponse(code, err.Error())

	case domain.IsUnavailable(err):
		return http.StatusBadGateway, NewErrorResponse(
			ErrorCodeUpstreamUnavailable,
			"quote feed temporarily unavailable: "+err.Error(),
		)

	default:
		return http.StatusInternalServerError, NewErrorResponse(
			ErrorCodeInternal,
			"an internal error occurred",
		)
	}
}

// HandleError maps err to the wire envelope, stamps the trace ID, and writes
// the response. Internal errors are logged with full detail before the
// generic envelope goes out.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	if resp == nil {
		return
	}

	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		logger := logging.FromContext(c.Request.Context())
		logger.Error("internal error",
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// HandleBindingError writes a 400 for request binding or validation
// failures. Validator errors carry field-level details; anything else gets
// the generic bad-request envelope.
func HandleBindingError(c *gin.Context, err error) {
	if IsValidationError(err) {
		resp := NewErrorResponseWithDetails(
			ErrorCodeValidation,
			"request validation failed",
			ValidationErrors(err),
		)
		resp.TraceID = GetTraceID(c)
		c.JSON(http.StatusBadRequest, resp)

		return
	}

	resp := NewErrorResponse(ErrorCodeBadRequest, "invalid request payload")
	resp.TraceID = GetTraceID(c)
	c.JSON(http.StatusBadRequest, resp)
}

// AbortWithError aborts the request chain and writes the mapped envelope.
// For use in middleware where later handlers must not run.
func AbortWithError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	if resp == nil {
		return
	}

	resp.TraceID = GetTraceID(c)
	c.AbortWithStatusJSON(status, resp)
}
