package dto

// DefaultListLimit is the default number of items returned by bounded
// listings such as the notifications feed.
const DefaultListLimit = 20

// MaxListLimit caps how many items a single listing request may ask for.
const MaxListLimit = 100

// ListQuery binds the shared limit query parameter of bounded listings.
type ListQuery struct {
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults and the cap applied.
func (q *ListQuery) GetLimit() int {
	if q.Limit <= 0 {
		return DefaultListLimit
	}

	if q.Limit > MaxListLimit {
		return MaxListLimit
	}

	return q.Limit
}
