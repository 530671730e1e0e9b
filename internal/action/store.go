package action

import "context"

// Store holds pending actions between proposal and resolution.
// Implementations must be safe for concurrent use, and Take must look up
// and remove an entry as one indivisible step: two concurrent Take calls
// for the same id never both succeed.
type Store interface {
	// Put registers a. It returns ErrDuplicateID if a.ActionID() is
	// already pending.
	Put(ctx context.Context, a PendingAction) error

	// Peek returns the action registered under id without removing it,
	// or ErrNotFound.
	Peek(ctx context.Context, id string) (PendingAction, error)

	// Take removes and returns the action registered under id, or
	// ErrNotFound.
	Take(ctx context.Context, id string) (PendingAction, error)

	// List returns all pending actions in proposal order.
	List(ctx context.Context) ([]PendingAction, error)

	// Len returns the number of pending actions.
	Len(ctx context.Context) (int, error)
}
