// Package app contains the application services that orchestrate quote
// collection use cases. It coordinates the record store, the wire codec and
// cross-cutting concerns (feature gating, notifications, logging) behind a
// transport-agnostic API.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quotesync/quotesync/internal/codec"
	"github.com/quotesync/quotesync/internal/domain"
	"github.com/quotesync/quotesync/internal/platform/logging"
	"github.com/quotesync/quotesync/internal/ports"
	"github.com/quotesync/quotesync/internal/store"
)

// FlagImportDedupe gates duplicate screening during imports. When enabled,
// an imported record whose text and category match an existing quote is
// skipped instead of appended under a fresh id.
const FlagImportDedupe = "import-dedupe"

// QuoteService exposes the quote collection to transports. It layers feature
// gating and user-facing notifications over the record store.
type QuoteService struct {
	store    *store.Store
	flags    ports.FeatureFlags
	notifier ports.Notifier
	logger   *slog.Logger
}

// QuoteServiceConfig holds the dependencies for QuoteService.
type QuoteServiceConfig struct {
	// Store is the loaded record store. Required.
	Store *store.Store

	// Flags resolves feature flags. Optional; a nil resolver leaves every
	// flag at its default.
	Flags ports.FeatureFlags

	// Notifier receives user-visible outcomes such as rejected imports.
	// Optional.
	Notifier ports.Notifier

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewQuoteService creates a new quote service.
// Panics if the store is missing, as the service cannot function without it.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("quote store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		store:    cfg.Store,
		flags:    cfg.Flags,
		notifier: cfg.Notifier,
		logger:   logger.With(slog.String("component", "quotes")),
	}
}

// List returns the records matching category in insertion order. An empty
// category or store.FilterAll matches everything; an unknown category yields
// an empty selection.
func (s *QuoteService) List(ctx context.Context, category string) []domain.Quote {
	selection := s.store.ByCategory(category)

	s.operationLogger(ctx, "List").DebugContext(ctx, "listed quotes",
		slog.String("category", category),
		slog.Int("count", len(selection)),
	)

	return selection
}

// Random picks a random quote from the selection for category and records it
// as the last displayed quote. Returns a not-found error when the selection
// is empty.
func (s *QuoteService) Random(ctx context.Context, category string) (domain.Quote, error) {
	logger := s.operationLogger(ctx, "Random")

	quote, err := s.store.Random(ctx, category)
	if err != nil {
		logger.DebugContext(ctx, "no quote available",
			slog.String("category", category),
		)

		return domain.Quote{}, fmt.Errorf("picking random quote: %w", err)
	}

	logger.InfoContext(ctx, "random quote selected",
		slog.Int64("id", quote.ID),
		slog.String("category", quote.Category),
	)

	return quote, nil
}

// LastDisplayed returns the quote most recently shown this session. Returns
// a not-found error when nothing has been displayed yet.
func (s *QuoteService) LastDisplayed(ctx context.Context) (domain.Quote, error) {
	quote, err := s.store.LastDisplayed(ctx)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("loading last displayed quote: %w", err)
	}

	return quote, nil
}

// Add validates and appends a user-authored quote, minting its id.
func (s *QuoteService) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	logger := s.operationLogger(ctx, "Add")

	quote, err := s.store.Add(ctx, text, category)
	if err != nil {
		logger.WarnContext(ctx, "quote rejected", slog.Any("error", err))

		return domain.Quote{}, fmt.Errorf("adding quote: %w", err)
	}

	logger.InfoContext(ctx, "quote added",
		slog.Int64("id", quote.ID),
		slog.String("category", quote.Category),
	)

	return quote, nil
}

// Export renders the full collection as an indented JSON document suitable
// for download and later re-import.
func (s *QuoteService) Export(ctx context.Context) ([]byte, error) {
	data, err := codec.Export(s.store.All())
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	s.operationLogger(ctx, "Export").InfoContext(ctx, "collection exported",
		slog.Int("bytes", len(data)),
	)

	return data, nil
}

// Import decodes an exported document and appends its records under fresh
// ids. Records matching an existing quote's text and category are skipped
// while FlagImportDedupe is enabled. A payload that fails to decode rejects
// the whole import and raises a user-visible notification.
func (s *QuoteService) Import(ctx context.Context, payload []byte) (store.IngestReport, error) {
	logger := s.operationLogger(ctx, "Import")

	records, err := codec.Import(payload)
	if err != nil {
		logger.WarnContext(ctx, "import rejected", slog.Any("error", err))
		s.notify(ctx, ports.NotifyError, "Import failed: invalid quotes file")

		return store.IngestReport{}, fmt.Errorf("decoding import payload: %w", err)
	}

	dedupe := true
	if s.flags != nil {
		dedupe = s.flags.IsEnabled(ctx, FlagImportDedupe, true)
	}

	report := s.store.Ingest(ctx, records, dedupe)

	logger.InfoContext(ctx, "import complete",
		slog.Int("added", report.Added),
		slog.Int("skipped", report.Skipped),
	)

	return report, nil
}

// Reset discards the collection and restores the built-in defaults. The last
// displayed quote is cleared with it.
func (s *QuoteService) Reset(ctx context.Context) []domain.Quote {
	restored := s.store.Reset(ctx)

	s.operationLogger(ctx, "Reset").InfoContext(ctx, "collection reset",
		slog.Int("count", len(restored)),
	)

	return restored
}

// Categories returns the distinct categories in first-seen order.
func (s *QuoteService) Categories(ctx context.Context) []string {
	return s.store.Categories()
}

// LastFilter returns the persisted category filter, store.FilterAll when
// none was saved.
func (s *QuoteService) LastFilter(ctx context.Context) string {
	return s.store.LastFilter(ctx)
}

// SetLastFilter persists the category filter for the next session. The
// filter must be store.FilterAll or a known category.
func (s *QuoteService) SetLastFilter(ctx context.Context, filter string) error {
	logger := s.operationLogger(ctx, "SetLastFilter")

	if err := s.store.SetLastFilter(ctx, filter); err != nil {
		logger.WarnContext(ctx, "filter rejected",
			slog.String("filter", filter),
			slog.Any("error", err),
		)

		return fmt.Errorf("persisting filter: %w", err)
	}

	logger.InfoContext(ctx, "filter persisted", slog.String("filter", filter))

	return nil
}

// operationLogger resolves the request-scoped logger, falling back to the
// service logger, and tags it with the operation name.
func (s *QuoteService) operationLogger(ctx context.Context, method string) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = s.logger
	}

	return logger.With(slog.String("method", method))
}

// notify emits a user-visible notification when a notifier is wired.
func (s *QuoteService) notify(ctx context.Context, level ports.NotificationLevel, message string) {
	if s.notifier == nil {
		return
	}

	s.notifier.Notify(ctx, ports.Notification{Level: level, Message: message})
}
