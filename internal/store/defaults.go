package store

import "github.com/quotesync/quotesync/internal/domain"

// DefaultQuotes returns the seed collection used when durable storage is
// absent or unreadable, and after an explicit reset. Returns a fresh copy on
// every call so callers can never mutate the seed.
func DefaultQuotes() []domain.Quote {
	return []domain.Quote{
		{ID: 1, Text: "The journey of a thousand miles begins with one step.", Category: "motivation"},
		{ID: 2, Text: "Life is what happens when you're busy making other plans.", Category: "life"},
		{ID: 3, Text: "Knowing yourself is the beginning of all wisdom.", Category: "wisdom"},
	}
}
