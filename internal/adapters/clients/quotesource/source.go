// Package quotesource adapts the remote quote feed to the domain model.
// The feed speaks a generic post dialect; this adapter translates feed items
// into quote records via configurable JSONPath selectors and maps transport
// failures to domain errors, keeping the feed's shape out of the rest of the
// service.
package quotesource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/quotesync/quotesync/internal/adapters/clients"
	"github.com/quotesync/quotesync/internal/domain"
	"github.com/quotesync/quotesync/internal/platform/logging"
)

const (
	// serviceName identifies the feed in errors and health reports.
	serviceName = "quote-feed"

	// DefaultFetchPath is the snapshot path of the stock feed.
	DefaultFetchPath = "/posts"

	// DefaultFetchLimit caps how many feed items a snapshot yields.
	DefaultFetchLimit = 10

	// DefaultCategory is used when a feed item has no usable category value.
	DefaultCategory = "server"
)

// Config contains configuration for the feed source.
type Config struct {
	// Client is the instrumented HTTP client. Its BaseURL must point at the feed.
	Client *clients.Client

	// FetchPath is the path queried for snapshots. Defaults to DefaultFetchPath.
	FetchPath string

	// PublishPath is the path new local records are posted to.
	// Defaults to FetchPath.
	PublishPath string

	// FetchLimit caps a snapshot at the first N feed items.
	// Defaults to DefaultFetchLimit.
	FetchLimit int

	// DefaultCategory replaces a missing or empty category value.
	// Defaults to DefaultCategory.
	DefaultCategory string

	// Mapping selects record fields inside a feed item. Empty selectors fall
	// back to the defaults.
	Mapping Mapping

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Source implements ports.RemoteSource against the HTTP quote feed.
// It also implements ports.HealthChecker.
type Source struct {
	client          *clients.Client
	fetchPath       string
	publishPath     string
	fetchLimit      int
	defaultCategory string
	mapping         *fieldMapping
	logger          *slog.Logger
}

// New creates a feed source adapter.
func New(cfg Config) (*Source, error) {
	if cfg.Client == nil {
		return nil, errors.New("quotesource: client is required")
	}

	mapping, err := compileMapping(cfg.Mapping)
	if err != nil {
		return nil, fmt.Errorf("quotesource: %w", err)
	}

	fetchPath := cfg.FetchPath
	if fetchPath == "" {
		fetchPath = DefaultFetchPath
	}

	publishPath := cfg.PublishPath
	if publishPath == "" {
		publishPath = fetchPath
	}

	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = DefaultFetchLimit
	}

	defaultCategory := cfg.DefaultCategory
	if defaultCategory == "" {
		defaultCategory = DefaultCategory
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		client:          cfg.Client,
		fetchPath:       fetchPath,
		publishPath:     publishPath,
		fetchLimit:      fetchLimit,
		defaultCategory: defaultCategory,
		mapping:         mapping,
		logger:          logger.With(slog.String("component", "quotesource")),
	}, nil
}

// feedItem is the external write shape, the inverse of the default field
// mapping: text travels as title, category as body.
type feedItem struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// FetchSnapshot retrieves the remote snapshot and translates it to quote
// records. Items the mapping cannot place an id or text on are skipped.
// Implements ports.RemoteSource.
func (s *Source) FetchSnapshot(ctx context.Context) ([]domain.Quote, error) {
	s.logger.Log(ctx, logging.LevelTrace, "starting fetch", slog.String("path", s.fetchPath))

	resp, err := s.client.Get(ctx, s.fetchPath)
	if err != nil {
		return nil, domain.NewUnavailableError(serviceName, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	s.logger.Log(ctx, logging.LevelTrace, "fetch complete",
		slog.String("path", s.fetchPath),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, s.errorFromResponse(resp)
	}

	return s.parseSnapshot(ctx, resp.Body)
}

// parseSnapshot decodes the feed payload and translates every usable item.
func (s *Source) parseSnapshot(ctx context.Context, body io.Reader) ([]domain.Quote, error) {
	var payload any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, domain.NewUnavailableError(serviceName, fmt.Sprintf("decoding feed payload: %v", err))
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, domain.NewUnavailableError(serviceName, fmt.Sprintf("unexpected feed payload: expected array, got %T", payload))
	}

	if len(items) > s.fetchLimit {
		items = items[:s.fetchLimit]
	}

	records := make([]domain.Quote, 0, len(items))
	for i, item := range items {
		record, ok := s.translateItem(ctx, item)
		if !ok {
			s.logger.WarnContext(ctx, "skipping unmappable feed item", slog.Int("index", i))
			continue
		}
		records = append(records, record)
	}

	s.logger.DebugContext(ctx, "fetched snapshot",
		slog.Int("items", len(items)),
		slog.Int("records", len(records)))

	return records, nil
}

// translateItem converts one feed item to a quote record. Id and text are
// mandatory; a missing category falls back to the configured default.
func (s *Source) translateItem(ctx context.Context, item any) (domain.Quote, bool) {
	id, ok := intAt(ctx, s.mapping.id, item)
	if !ok {
		return domain.Quote{}, false
	}

	text, ok := stringAt(ctx, s.mapping.text, item)
	if !ok {
		return domain.Quote{}, false
	}

	category, ok := stringAt(ctx, s.mapping.category, item)
	if !ok {
		category = s.defaultCategory
	}

	return domain.Quote{ID: id, Text: text, Category: category}, true
}

// Publish posts a locally created record to the feed. The feed's echo body
// is discarded; only the status code matters.
// Implements ports.RemoteSource.
func (s *Source) Publish(ctx context.Context, record domain.Quote) error {
	payload, err := json.Marshal(feedItem{
		ID:    record.ID,
		Title: record.Text,
		Body:  record.Category,
	})
	if err != nil {
		return fmt.Errorf("encoding record %d: %w", record.ID, err)
	}

	resp, err := s.client.Post(ctx, s.publishPath, bytes.NewReader(payload))
	if err != nil {
		return domain.NewUnavailableError(serviceName, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return s.errorFromResponse(resp)
	}

	// Drain the echo so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	s.logger.DebugContext(ctx, "published record", slog.Int64("id", record.ID))

	return nil
}

// errorFromResponse converts HTTP error responses to domain errors.
func (s *Source) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	s.logger.Warn("feed returned error",
		slog.Int("status_code", resp.StatusCode),
		slog.String("body", string(body)),
	)

	return domain.NewUnavailableError(serviceName, fmt.Sprintf("unexpected HTTP %d", resp.StatusCode))
}

// Name returns the health check name for this source.
// Implements ports.HealthChecker.
func (s *Source) Name() string {
	return serviceName
}

// Check verifies connectivity by querying the snapshot path.
// Implements ports.HealthChecker.
func (s *Source) Check(ctx context.Context) error {
	resp, err := s.client.Get(ctx, s.fetchPath)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	return nil
}
