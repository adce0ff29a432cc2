// Package merge reconciles remote snapshots into the local quote collection.
//
// The merge is keyed by record ID and resolves every conflict remote-wins:
// no three-way diff, no per-field reconciliation, no preservation of local
// edits to a record the remote also carries. It is additive and overwriting,
// never deletive - a local-only record the snapshot does not mention is left
// untouched.
package merge

import "github.com/quotesync/quotesync/internal/domain"

// Outcome reports what a reconcile pass did to the collection.
type Outcome struct {
	// Added is the number of remote records appended as new.
	Added int

	// Updated is the number of local records overwritten in place.
	Updated int
}

// Changed reports whether the pass mutated the collection at all.
func (o Outcome) Changed() bool {
	return o.Added > 0 || o.Updated > 0
}

// Affected returns the total number of records the pass touched.
func (o Outcome) Affected() int {
	return o.Added + o.Updated
}

// Reconcile merges a remote snapshot into a local collection and returns the
// merged collection plus an outcome report. The inputs are not mutated.
//
// For each remote record in snapshot order: an unknown ID is appended, a
// known ID with identical content is a no-op, and a known ID with differing
// content is overwritten in place. Insertion order of surviving local
// records is preserved. Reconciling the same snapshot twice yields the same
// collection as reconciling it once.
func Reconcile(local, remote []domain.Quote) ([]domain.Quote, Outcome) {
	merged := domain.CloneQuotes(local)
	if merged == nil {
		merged = []domain.Quote{}
	}

	// Index the first occurrence of each ID. A transient duplicate ID in
	// the local collection resolves to its first record, matching lookup
	// order.
	index := make(map[int64]int, len(merged))
	for i, q := range merged {
		if _, exists := index[q.ID]; !exists {
			index[q.ID] = i
		}
	}

	var outcome Outcome

	for _, r := range remote {
		i, found := index[r.ID]
		if !found {
			merged = append(merged, r)
			index[r.ID] = len(merged) - 1
			outcome.Added++

			continue
		}

		if merged[i].Identical(r) {
			continue
		}

		merged[i] = r
		outcome.Updated++
	}

	return merged, outcome
}
