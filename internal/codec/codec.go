// Package codec serializes the quote collection to its exchange format and
// validates external input on the way back in.
//
// Two distinct failure modes exist for inbound data: Malformed (the bytes are
// not parseable as JSON at all) and InvalidShape (the JSON parsed but is not
// an ordered sequence of quote-shaped records). Callers branch on the kind
// via domain.ImportKind.
package codec

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/quotesync/quotesync/internal/domain"
)

// ExportFilename is the name offered for the downloadable collection file.
const ExportFilename = "quotes.json"

// exportIndent is the indentation unit for the exchange format.
const exportIndent = "  "

// record is the wire shape of a single quote. ID is a pointer so import can
// distinguish "absent" from zero.
type record struct {
	ID       *int64 `json:"id,omitempty"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Encode serializes the collection compactly for durable storage.
func Encode(quotes []domain.Quote) ([]byte, error) {
	data, err := json.Marshal(toRecords(quotes))
	if err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}

	return data, nil
}

// Export serializes the full collection as the user-facing exchange file:
// a 2-space-indented JSON array.
func Export(quotes []domain.Quote) ([]byte, error) {
	data, err := json.MarshalIndent(toRecords(quotes), "", exportIndent)
	if err != nil {
		return nil, fmt.Errorf("exporting collection: %w", err)
	}

	return data, nil
}

// Decode parses a durable serialization of the collection. Every record must
// carry an ID; persisted collections always do, so a missing ID means the
// stored state is not ours and counts as structurally invalid.
func Decode(data []byte) ([]domain.Quote, error) {
	return decodeRecords(data, true)
}

// Import parses user-supplied bytes into quote records. IDs are optional;
// records without one come back with ID zero and the caller assigns one via
// the collection's counter policy. Duplicate suppression is the caller's
// concern, not the codec's.
func Import(data []byte) ([]domain.Quote, error) {
	return decodeRecords(data, false)
}

// decodeRecords is the shared validation core for Decode and Import.
func decodeRecords(data []byte, requireID bool) ([]domain.Quote, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, domain.NewImportError(domain.ImportMalformed, err.Error())
	}

	items, ok := parsed.([]any)
	if !ok {
		return nil, domain.NewImportError(domain.ImportInvalidShape,
			"payload is not an ordered sequence")
	}

	quotes := make([]domain.Quote, 0, len(items))

	for i, item := range items {
		quote, err := decodeRecord(i, item, requireID)
		if err != nil {
			return nil, err
		}

		quotes = append(quotes, quote)
	}

	return quotes, nil
}

// decodeRecord validates a single parsed item against the quote record shape.
func decodeRecord(index int, item any, requireID bool) (domain.Quote, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return domain.Quote{}, shapeErrorf("record %d is not an object", index)
	}

	text, ok := nonEmptyString(obj["text"])
	if !ok {
		return domain.Quote{}, shapeErrorf("record %d: text must be a non-empty string", index)
	}

	category, ok := nonEmptyString(obj["category"])
	if !ok {
		return domain.Quote{}, shapeErrorf("record %d: category must be a non-empty string", index)
	}

	quote := domain.Quote{Text: text, Category: category}

	raw, present := obj["id"]
	if !present || raw == nil {
		if requireID {
			return domain.Quote{}, shapeErrorf("record %d: missing id", index)
		}

		return quote, nil
	}

	id, ok := integerValue(raw)
	if !ok || id < 0 {
		return domain.Quote{}, shapeErrorf("record %d: id must be a non-negative integer", index)
	}

	quote.ID = id

	return quote, nil
}

// nonEmptyString extracts a non-empty string value.
func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// integerValue extracts an integral JSON number. encoding/json decodes
// numbers as float64, so a fractional part disqualifies the value.
func integerValue(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}

	return int64(f), true
}

// toRecords converts domain quotes to their wire shape. A nil collection
// serializes as an empty array, never null.
func toRecords(quotes []domain.Quote) []record {
	records := make([]record, 0, len(quotes))

	for _, q := range quotes {
		id := q.ID
		records = append(records, record{ID: &id, Text: q.Text, Category: q.Category})
	}

	return records
}

// shapeErrorf builds an InvalidShape import error.
func shapeErrorf(format string, args ...any) error {
	return domain.NewImportError(domain.ImportInvalidShape, fmt.Sprintf(format, args...))
}
