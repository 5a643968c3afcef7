package worklist

// ============================================================================
// Work-List Scheduler Errors
// Purpose: Define the scheduler consistency error taxonomy entry
// ============================================================================

import "errors"

var (
	// ErrTodoMissing indicates the todo file does not exist at construction
	// time. An empty todo file is fine; a missing one is fatal.
	ErrTodoMissing = errors.New("worklist: todo file does not exist")

	// ErrInconsistentWip indicates the on-disk wip file no longer matches
	// the in-memory wip list. Recovering from this requires operator
	// intervention; the scheduler refuses to guess.
	ErrInconsistentWip = errors.New("worklist: wip file diverged from in-memory list")

	// ErrItemNotInWip indicates mark-completed was asked to retire an item
	// that is not currently checked out.
	ErrItemNotInWip = errors.New("worklist: item not present in wip list")
)
