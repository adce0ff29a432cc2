package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotesync/quotesync/internal/adapters/http/dto"
	"github.com/quotesync/quotesync/internal/platform/logging"
)

// Deadline returns middleware that puts a deadline on the request context.
// Handlers are expected to respect cancellation; the middleware does not
// try to abort a handler that ignores it. This is the variant applied to
// the API group.
func Deadline(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Timeout returns middleware that additionally answers for handlers that
// overrun: when the deadline passes before the handler finishes, it writes
// a 504 with the standard envelope. The overrunning handler keeps executing
// on its goroutine; its late response is discarded by gin.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})

		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
			return
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				respondTimeout(c, timeout)
			}
		}
	}
}

// respondTimeout logs the overrun and writes the timeout envelope.
func respondTimeout(c *gin.Context, timeout time.Duration) {
	ctxLogger := logging.FromContext(c.Request.Context())

	ctxLogger.Warn("request timeout",
		slog.String("path", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Duration("timeout", timeout),
	)

	errResp := dto.NewErrorResponse(
		dto.ErrorCodeTimeout,
		"request timeout exceeded",
	)
	if traceID := dto.GetTraceID(c); traceID != "" {
		errResp.TraceID = traceID
	}

	if !c.Writer.Written() {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, errResp)
	} else {
		c.Abort()
	}
}
