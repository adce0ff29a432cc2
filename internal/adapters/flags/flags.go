// Package flags provides a config-backed feature flag adapter.
package flags

import (
	"context"
	"log/slog"
	"sync"
)

// Static evaluates feature flags from a fixed map loaded at startup.
// Unknown flags resolve to the caller's default value.
// Implements ports.FeatureFlags.
type Static struct {
	mu     sync.RWMutex
	values map[string]bool
	logger *slog.Logger
}

// NewStatic creates a flag adapter over the given values. The map is copied,
// later changes to the caller's map are not observed.
func NewStatic(values map[string]bool, logger *slog.Logger) *Static {
	if logger == nil {
		logger = slog.Default()
	}

	copied := make(map[string]bool, len(values))
	for name, value := range values {
		copied[name] = value
	}

	return &Static{
		values: copied,
		logger: logger.With(slog.String("component", "flags")),
	}
}

// IsEnabled checks a boolean feature flag, falling back to defaultValue when
// the flag is not configured. Implements ports.FeatureFlags.
func (s *Static) IsEnabled(ctx context.Context, flag string, defaultValue bool) bool {
	s.mu.RLock()
	value, ok := s.values[flag]
	s.mu.RUnlock()

	if !ok {
		s.logger.DebugContext(ctx, "flag not configured, using default",
			slog.String("flag", flag),
			slog.Bool("default", defaultValue))
		return defaultValue
	}

	return value
}

// Set overrides a flag at runtime. Intended for tests and local tooling.
func (s *Static) Set(flag string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[flag] = value
}
