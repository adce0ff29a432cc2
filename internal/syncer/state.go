package syncer

// State represents the current phase of the sync scheduler.
type State int

const (
	// StateIdle is the resting state, waiting for the next tick or a
	// manual trigger.
	StateIdle State = iota

	// StateFetching covers the push phase and the snapshot fetch.
	StateFetching

	// StateReconciling is the merge of the snapshot into the collection.
	StateReconciling

	// StateFailed marks an abandoned cycle. It is transient; the machine
	// returns to Idle immediately after reporting.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReconciling:
		return "reconciling"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
