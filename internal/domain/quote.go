// Package domain contains core business entities and rules.
package domain

import "strings"

// Quote represents a single quote record in the collection.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the identity key. Locally created records receive IDs from the
	// store's monotonic counter; remote records carry IDs minted by the
	// remote source. The two ID spaces are not guaranteed disjoint.
	ID int64 `json:"id"`

	// Text is the quote body.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// Validate checks the business rules for a quote record.
// Text and category must contain at least one non-whitespace character.
func (q Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "must not be empty")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "must not be empty")
	}

	return nil
}

// Identical reports whether two records are structurally equal, including
// the ID. Merge uses this to decide between no-op and overwrite.
func (q Quote) Identical(other Quote) bool {
	return q == other
}

// DuplicateOf reports whether two records carry the same text and category,
// ignoring IDs. Import uses this equality for duplicate suppression; it is
// deliberately distinct from the ID-based identity that merge uses.
func (q Quote) DuplicateOf(other Quote) bool {
	return q.Text == other.Text && q.Category == other.Category
}

// CloneQuotes returns an independent copy of a record slice. Records are
// value types, so a shallow copy is a deep copy.
func CloneQuotes(quotes []Quote) []Quote {
	if quotes == nil {
		return nil
	}

	out := make([]Quote, len(quotes))
	copy(out, quotes)

	return out
}
