package action

import "time"

// Observer receives action lifecycle notifications. Implementations must be
// safe for concurrent use.
type Observer interface {
	// ActionProposed is called after an action is registered.
	ActionProposed(kind Kind)

	// ActionResolved is called once per approve or reject call. kind is
	// empty when the id was not found.
	ActionResolved(kind Kind, status Status, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ActionProposed(Kind)                        {}
func (nopObserver) ActionResolved(Kind, Status, time.Duration) {}
