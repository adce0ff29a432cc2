package quotesource

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
)

// Default selectors for the feed dialect. The feed serves generic posts;
// the title carries the quote text and the body names the category.
const (
	DefaultIDPath       = "$.id"
	DefaultTextPath     = "$.title"
	DefaultCategoryPath = "$.body"
)

// Mapping holds the JSONPath selectors that locate record fields inside a
// single feed item. Selectors are configurable so a feed with a different
// shape only needs a config change.
type Mapping struct {
	ID       string
	Text     string
	Category string
}

// DefaultMapping returns the selectors for the stock feed dialect.
func DefaultMapping() Mapping {
	return Mapping{
		ID:       DefaultIDPath,
		Text:     DefaultTextPath,
		Category: DefaultCategoryPath,
	}
}

// withDefaults fills empty selectors from the default mapping.
func (m Mapping) withDefaults() Mapping {
	if m.ID == "" {
		m.ID = DefaultIDPath
	}
	if m.Text == "" {
		m.Text = DefaultTextPath
	}
	if m.Category == "" {
		m.Category = DefaultCategoryPath
	}
	return m
}

// fieldMapping is the compiled form of a Mapping.
type fieldMapping struct {
	id       gval.Evaluable
	text     gval.Evaluable
	category gval.Evaluable
}

// compileMapping pre-compiles the selectors so bad config fails at startup,
// not on the first sync cycle.
func compileMapping(m Mapping) (*fieldMapping, error) {
	m = m.withDefaults()

	id, err := jsonpath.New(m.ID)
	if err != nil {
		return nil, fmt.Errorf("compiling id selector %q: %w", m.ID, err)
	}

	text, err := jsonpath.New(m.Text)
	if err != nil {
		return nil, fmt.Errorf("compiling text selector %q: %w", m.Text, err)
	}

	category, err := jsonpath.New(m.Category)
	if err != nil {
		return nil, fmt.Errorf("compiling category selector %q: %w", m.Category, err)
	}

	return &fieldMapping{id: id, text: text, category: category}, nil
}

// stringAt evaluates a selector against a feed item and coerces the result to
// a non-empty trimmed string.
func stringAt(ctx context.Context, sel gval.Evaluable, item any) (string, bool) {
	v, err := sel(ctx, item)
	if err != nil {
		return "", false
	}
	v = unwrapSingle(v)

	s, ok := v.(string)
	if !ok {
		return "", false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	return s, true
}

// intAt evaluates a selector and coerces the result to a non-negative
// integer. Feeds sometimes stringify numbers, so both forms are accepted.
func intAt(ctx context.Context, sel gval.Evaluable, item any) (int64, bool) {
	v, err := sel(ctx, item)
	if err != nil {
		return 0, false
	}
	v = unwrapSingle(v)

	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < 0 {
			return 0, false
		}
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil || id < 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// unwrapSingle keeps the first element when a selector yields a list of one
// answer instead of a single answer.
func unwrapSingle(v any) any {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return v
}
