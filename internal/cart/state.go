package cart

// MutationState tracks one item's remove / quantity change. Items are
// independent; an item with no recorded state is Idle.
type MutationState string

const (
	Idle     MutationState = "idle"
	Mutating MutationState = "mutating"
	Settled  MutationState = "settled"
	Failed   MutationState = "failed"
)
