// Package notify implements the in-process notification feed.
//
// Notifications are the user-visible trace of background activity: sync
// results, import rejections, storage trouble. The ring keeps the most
// recent entries for the notifications API and mirrors each one to the
// structured log.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quotesync/quotesync/internal/ports"
)

// DefaultCapacity bounds the ring when no capacity is configured.
const DefaultCapacity = 50

// Ring keeps the newest notifications in a bounded buffer.
// Implements ports.Notifier.
type Ring struct {
	mu       sync.RWMutex
	capacity int
	entries  []ports.Notification
	logger   *slog.Logger

	// now returns the current time. Overridable for testing.
	now func() time.Time
}

// NewRing creates a notification ring holding at most capacity entries.
func NewRing(capacity int, logger *slog.Logger) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Ring{
		capacity: capacity,
		logger:   logger.With(slog.String("component", "notify")),
		now:      time.Now,
	}
}

// Notify records a notification, stamping it when the caller left At zero,
// and mirrors it to the log. Implements ports.Notifier.
func (r *Ring) Notify(ctx context.Context, n ports.Notification) {
	if n.Level == "" {
		n.Level = ports.NotifyInfo
	}
	if n.At.IsZero() {
		n.At = r.now().UTC()
	}

	r.mu.Lock()
	r.entries = append(r.entries, n)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
	r.mu.Unlock()

	level := slog.LevelInfo
	if n.Level == ports.NotifyError {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "notification", slog.String("message", n.Message))
}

// Recent returns up to limit notifications, newest first. A non-positive
// limit returns everything buffered.
func (r *Ring) Recent(limit int) []ports.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}

	out := make([]ports.Notification, 0, limit)
	for i := len(r.entries) - 1; i >= len(r.entries)-limit; i-- {
		out = append(out, r.entries[i])
	}

	return out
}

// Len reports how many notifications are buffered.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
