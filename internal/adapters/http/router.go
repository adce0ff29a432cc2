package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotesync/quotesync/internal/adapters/http/handlers"
	"github.com/quotesync/quotesync/internal/adapters/http/middleware"
	"github.com/quotesync/quotesync/internal/platform/config"
	"github.com/quotesync/quotesync/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default deadline for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// HealthHandler handles the operational endpoints under /-.
	HealthHandler *handlers.HealthHandler

	// QuoteHandler handles the quote collection endpoints.
	QuoteHandler *handlers.QuoteHandler

	// SyncHandler handles the sync trigger and status endpoints.
	SyncHandler *handlers.SyncHandler

	// NotificationsHandler handles the notification feed endpoint.
	NotificationsHandler *handlers.NotificationsHandler

	// Timeout is the per-request deadline for API routes.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - propagate the cross-service correlation ID
//  4. Tracing - server spans and W3C context propagation
//  5. Metrics - RED metrics and the X-Trace-ID response header
//  6. Logging - request logging (skips the /- endpoints)
//
// Route groups:
//   - /-/ (operational): probes, build info, metrics; no request deadline
//   - /api/v1/ (public API): quote, sync and notification endpoints
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "quotesync"
	if cfg.AppConfig != nil {
		serviceName = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Tracing(serviceName),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Deadline(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterSyncRoutes(apiV1)
	}

	if cfg.NotificationsHandler != nil {
		cfg.NotificationsHandler.RegisterNotificationRoutes(apiV1)
	}
}

// SetupMinimalRouter sets up a minimal router with just the operational
// endpoints. Useful for testing or lightweight deployments.
func SetupMinimalRouter(engine *gin.Engine, healthHandler *handlers.HealthHandler) {
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
	)

	if healthHandler != nil {
		healthHandler.RegisterHealthRoutesOnEngine(engine)
	}
}

// NewDefaultRouterConfig creates a RouterConfig with the default request
// timeout.
func NewDefaultRouterConfig(
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
	quoteHandler *handlers.QuoteHandler,
	syncHandler *handlers.SyncHandler,
	notificationsHandler *handlers.NotificationsHandler,
) RouterConfig {
	return RouterConfig{
		AppConfig:            appCfg,
		HealthHandler:        healthHandler,
		QuoteHandler:         quoteHandler,
		SyncHandler:          syncHandler,
		NotificationsHandler: notificationsHandler,
		Timeout:              DefaultRequestTimeout,
	}
}
