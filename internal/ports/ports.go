// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"
	"time"

	"github.com/quotesync/quotesync/internal/domain"
)

// KeyValueStore is the storage collaborator for the record store. Two
// instances exist at runtime: a durable one (survives restarts, holds the
// serialized collection and the last filter selection) and a session-scoped
// one (holds the last displayed record, empty at process start).
type KeyValueStore interface {
	// Get retrieves the value stored under key.
	// Returns domain.ErrNotFound if the key has never been set.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value stored under key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// RemoteSource is the opaque remote collaborator the scheduler syncs against.
// Implementations own the field-mapping policy that turns arbitrary external
// payloads into quote records; the rest of the system never sees the external
// shape.
type RemoteSource interface {
	// FetchSnapshot retrieves the remote collection, already mapped to quote
	// records and truncated to the configured prefix.
	// Returns domain.ErrUnavailable when the remote cannot be reached or
	// returns an unusable payload.
	FetchSnapshot(ctx context.Context) ([]domain.Quote, error)

	// Publish pushes one locally originated record to the remote,
	// best-effort. The remote's acknowledgment is not tracked beyond the
	// success/failure of this call.
	Publish(ctx context.Context, quote domain.Quote) error
}

// NotificationLevel classifies user-visible notifications.
type NotificationLevel string

const (
	// NotifyInfo is for routine outcomes (sync applied changes, import added records).
	NotifyInfo NotificationLevel = "info"

	// NotifyError is for failures the user should know about (manual sync failed).
	NotifyError NotificationLevel = "error"
)

// Notification is a transient user-visible message emitted at operation
// boundaries. The presentation layer renders these however it likes; the core
// only guarantees emission.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

// Notifier delivers user-visible notifications. Delivery is best-effort and
// must never fail an operation.
type Notifier interface {
	// Notify emits one notification.
	Notify(ctx context.Context, n Notification)
}

// FeatureFlags is the contract for runtime behavior switches whose presence
// is a deliberate part of the design (variants of this system differ on
// them), as opposed to startup configuration.
type FeatureFlags interface {
	// IsEnabled checks a boolean flag, returning defaultValue if the flag is
	// not configured.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool
}
