// Package store owns the authoritative in-memory quote collection, its
// durable serialized form, and the state derived from it (category index,
// last displayed record, last filter selection).
//
// The store is an explicit owned object handed to every component that needs
// the collection; there is no ambient module state. All mutations serialize
// behind one mutex, which preserves the origin's single-writer guarantees:
// local adds are never blocked by an in-flight sync fetch because the lock is
// only held while reconciling in memory, never across network I/O.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/quotesync/quotesync/internal/codec"
	"github.com/quotesync/quotesync/internal/domain"
	"github.com/quotesync/quotesync/internal/merge"
	"github.com/quotesync/quotesync/internal/ports"
)

// Storage keys. The durable keys match the origin's localStorage layout; the
// session key matches its sessionStorage layout.
const (
	// KeyQuotes is the durable key holding the serialized collection.
	KeyQuotes = "quotes"

	// KeyLastFilter is the durable key holding the last filter selection.
	KeyLastFilter = "lastFilter"

	// KeyLastQuote is the session key holding the last displayed record.
	KeyLastQuote = "lastQuote"
)

// FilterAll is the sentinel filter selection meaning "no category filter".
const FilterAll = "all"

// Config holds the store's dependencies and policy knobs.
type Config struct {
	// Durable is the restart-surviving storage collaborator.
	Durable ports.KeyValueStore

	// Session is the session-scoped storage collaborator.
	Session ports.KeyValueStore

	// IDFloor seeds the counter so locally minted IDs start at IDFloor at
	// the earliest. The default of 1 reproduces the plain max+1 policy;
	// deployments that want local IDs disjoint from a bounded remote ID
	// space can raise it (e.g. 101 for a remote that never exceeds 100).
	IDFloor int64

	// Defaults overrides the seed collection. Nil means DefaultQuotes().
	Defaults []domain.Quote

	// Logger for load fallbacks and persist failures. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// IngestReport describes what an import absorbed.
type IngestReport struct {
	// Added is the number of records appended to the collection.
	Added int `json:"added"`

	// Skipped is the number of records suppressed as duplicates.
	Skipped int `json:"skipped"`
}

// Store is the record store. Create with New, then call Load before use.
type Store struct {
	mu       sync.RWMutex
	quotes   []domain.Quote
	counter  int64
	durable  ports.KeyValueStore
	session  ports.KeyValueStore
	idFloor  int64
	defaults []domain.Quote
	logger   *slog.Logger

	// randIntN is swappable in tests for deterministic picks.
	randIntN func(n int) int
}

// New creates a store over the given storage collaborators. The collection
// is empty until Load runs.
func New(cfg Config) (*Store, error) {
	if cfg.Durable == nil {
		return nil, fmt.Errorf("store: durable storage is required")
	}

	if cfg.Session == nil {
		return nil, fmt.Errorf("store: session storage is required")
	}

	idFloor := cfg.IDFloor
	if idFloor < 1 {
		idFloor = 1
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = DefaultQuotes()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		durable:  cfg.Durable,
		session:  cfg.Session,
		idFloor:  idFloor,
		defaults: defaults,
		logger:   logger.With(slog.String("component", "store")),
		randIntN: rand.IntN,
	}, nil
}

// Load initializes the collection from durable storage. Absent or
// structurally invalid durable state is downgraded to "absent": the default
// set is loaded and immediately persisted. Load never fails outward.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.durable.Get(ctx, KeyQuotes)
	if err == nil {
		quotes, decodeErr := codec.Decode(data)
		if decodeErr == nil {
			s.quotes = quotes
			s.resetCounterLocked()

			s.logger.InfoContext(ctx, "collection loaded",
				slog.Int("records", len(quotes)))

			return
		}

		s.logger.WarnContext(ctx, "durable collection invalid, using defaults",
			slog.Any("error", decodeErr))
	} else if !domain.IsNotFound(err) {
		s.logger.WarnContext(ctx, "durable collection unreadable, using defaults",
			slog.Any("error", err))
	}

	s.quotes = domain.CloneQuotes(s.defaults)
	s.resetCounterLocked()
	s.persistLocked(ctx)

	s.logger.InfoContext(ctx, "default collection seeded",
		slog.Int("records", len(s.quotes)))
}

// Save serializes the full collection, overwriting prior durable state.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saveLocked(ctx)
}

// Add validates, assigns an ID per the counter policy, appends, and
// persists. A durable write failure is logged and does not undo the
// in-memory append; the caller still gets the record.
func (s *Store) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	quote := domain.Quote{
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
	}

	if err := quote.Validate(); err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	quote.ID = s.counter
	s.quotes = append(s.quotes, quote)
	s.persistLocked(ctx)

	return quote, nil
}

// Ingest absorbs imported records: records without an ID get one from the
// counter, and when dedupe is set, records whose text and category already
// exist in the collection are suppressed. Persists once if anything was
// added.
func (s *Store) Ingest(ctx context.Context, records []domain.Quote, dedupe bool) IngestReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report IngestReport

	for _, r := range records {
		if dedupe && s.containsDuplicateLocked(r) {
			report.Skipped++

			continue
		}

		if r.ID == 0 {
			s.counter++
			r.ID = s.counter
		}

		s.quotes = append(s.quotes, r)
		report.Added++
	}

	if report.Added > 0 {
		s.raiseCounterLocked()
		s.persistLocked(ctx)
	}

	return report
}

// ApplyRemote reconciles a remote snapshot into the collection. When the
// merge changed anything the collection is persisted once and the counter is
// raised above any remote-minted IDs.
func (s *Store) ApplyRemote(ctx context.Context, snapshot []domain.Quote) merge.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, outcome := merge.Reconcile(s.quotes, snapshot)
	if !outcome.Changed() {
		return outcome
	}

	s.quotes = merged
	s.raiseCounterLocked()
	s.persistLocked(ctx)

	return outcome
}

// Reset replaces the collection with the default set, persists, and clears
// the last displayed record.
func (s *Store) Reset(ctx context.Context) []domain.Quote {
	s.mu.Lock()

	s.quotes = domain.CloneQuotes(s.defaults)
	s.resetCounterLocked()
	s.persistLocked(ctx)
	snapshot := domain.CloneQuotes(s.quotes)

	s.mu.Unlock()

	if err := s.session.Delete(ctx, KeyLastQuote); err != nil {
		s.logger.WarnContext(ctx, "clearing last displayed record failed",
			slog.Any("error", err))
	}

	return snapshot
}

// All returns the collection in insertion order.
func (s *Store) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneQuotes(s.quotes)
}

// ByCategory returns the records matching category, in insertion order.
// An empty category or FilterAll matches everything.
func (s *Store) ByCategory(category string) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectLocked(category)
}

// Random picks a random record from the given category selection, records it
// as the last displayed record, and returns it. Returns domain.ErrNotFound
// when the selection is empty.
func (s *Store) Random(ctx context.Context, category string) (domain.Quote, error) {
	s.mu.RLock()
	selection := s.selectLocked(category)
	pick := s.randIntN
	s.mu.RUnlock()

	if len(selection) == 0 {
		selector := ""
		if !matchesAll(category) {
			selector = fmt.Sprintf("category %q", category)
		}

		return domain.Quote{}, domain.NewNotFoundError("quote", selector)
	}

	quote := selection[pick(len(selection))]

	data, err := codec.Encode([]domain.Quote{quote})
	if err == nil {
		if setErr := s.session.Set(ctx, KeyLastQuote, data); setErr != nil {
			s.logger.WarnContext(ctx, "recording last displayed record failed",
				slog.Any("error", setErr))
		}
	}

	return quote, nil
}

// LastDisplayed returns the last displayed record from session storage.
// Returns domain.ErrNotFound when nothing was displayed this session.
func (s *Store) LastDisplayed(ctx context.Context) (domain.Quote, error) {
	data, err := s.session.Get(ctx, KeyLastQuote)
	if err != nil {
		return domain.Quote{}, err
	}

	quotes, err := codec.Decode(data)
	if err != nil || len(quotes) != 1 {
		return domain.Quote{}, domain.NewNotFoundError("last displayed record", "")
	}

	return quotes[0], nil
}

// Categories returns the distinct categories in first-seen order, recomputed
// on every call so it can never go stale across mutations.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.quotes))
	categories := make([]string, 0, len(s.quotes))

	for _, q := range s.quotes {
		if _, dup := seen[q.Category]; dup {
			continue
		}

		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}

	return categories
}

// LastFilter returns the durable filter selection, defaulting to FilterAll
// when none was ever saved.
func (s *Store) LastFilter(ctx context.Context) string {
	data, err := s.durable.Get(ctx, KeyLastFilter)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WarnContext(ctx, "reading last filter failed",
				slog.Any("error", err))
		}

		return FilterAll
	}

	filter := string(data)
	if filter == "" {
		return FilterAll
	}

	return filter
}

// SetLastFilter persists the filter selection. The selection must be
// FilterAll or a category currently present in the collection.
func (s *Store) SetLastFilter(ctx context.Context, filter string) error {
	if !matchesAll(filter) && !s.hasCategory(filter) {
		return domain.NewValidationErrorWithValue("filter", "unknown category", filter)
	}

	if matchesAll(filter) {
		filter = FilterAll
	}

	if err := s.durable.Set(ctx, KeyLastFilter, []byte(filter)); err != nil {
		return fmt.Errorf("persisting filter selection: %w", err)
	}

	return nil
}

// Counter returns the highest ID the counter has accounted for. Records
// with greater IDs observed later were minted locally after this snapshot;
// the scheduler uses that to find unpublished local records.
func (s *Store) Counter() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counter
}

// MintedAfter returns records whose ID exceeds baseline, in insertion order.
func (s *Store) MintedAfter(baseline int64) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var minted []domain.Quote

	for _, q := range s.quotes {
		if q.ID > baseline {
			minted = append(minted, q)
		}
	}

	return minted
}

// selectLocked filters the collection by category. Callers hold the lock.
func (s *Store) selectLocked(category string) []domain.Quote {
	if matchesAll(category) {
		return domain.CloneQuotes(s.quotes)
	}

	var selection []domain.Quote

	for _, q := range s.quotes {
		if q.Category == category {
			selection = append(selection, q)
		}
	}

	return selection
}

// containsDuplicateLocked reports whether a record with the same text and
// category already exists. Callers hold the lock.
func (s *Store) containsDuplicateLocked(r domain.Quote) bool {
	for _, q := range s.quotes {
		if q.DuplicateOf(r) {
			return true
		}
	}

	return false
}

// hasCategory reports whether any record carries the category.
func (s *Store) hasCategory(category string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.quotes {
		if q.Category == category {
			return true
		}
	}

	return false
}

// resetCounterLocked recomputes the counter from the collection and floor.
// Callers hold the lock.
func (s *Store) resetCounterLocked() {
	s.counter = s.idFloor - 1
	s.raiseCounterLocked()
}

// raiseCounterLocked lifts the counter above every ID in the collection so
// the next local mint is strictly greater than everything seen so far. The
// counter never moves down. Callers hold the lock.
func (s *Store) raiseCounterLocked() {
	for _, q := range s.quotes {
		if q.ID > s.counter {
			s.counter = q.ID
		}
	}
}

// persistLocked writes the collection to durable storage, downgrading
// failure to a log line: the in-memory state is already updated and stays
// authoritative. Callers hold the lock.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.saveLocked(ctx); err != nil {
		s.logger.ErrorContext(ctx, "persisting collection failed",
			slog.Any("error", err))
	}
}

// saveLocked serializes and writes the collection. Callers hold the lock.
func (s *Store) saveLocked(ctx context.Context) error {
	data, err := codec.Encode(s.quotes)
	if err != nil {
		return fmt.Errorf("serializing collection: %w", err)
	}

	if err := s.durable.Set(ctx, KeyQuotes, data); err != nil {
		return fmt.Errorf("writing collection: %w", err)
	}

	return nil
}

// matchesAll reports whether the category selects the whole collection.
func matchesAll(category string) bool {
	return category == "" || category == FilterAll
}
