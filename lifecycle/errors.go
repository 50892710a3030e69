// Package lifecycle implements the referral lifecycle as pure state
// transitions: each operation takes entity snapshots and returns updated
// snapshots plus the timeline events to record. Persistence stays with the
// caller, so every rule here is testable without a database.
package lifecycle

import "fmt"

// InvalidStateError reports an operation requested from a state that does
// not allow it (e.g. starting recommendations for a client that already
// started).
type InvalidStateError struct {
	Entity string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s in state %q does not allow %s", e.Entity, e.State, e.Op)
}

// InvalidTransitionError reports a referred-client transition that would
// skip a funnel step or move backward.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// NotFoundError reports a referenced entity that is absent.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ExternalServiceError wraps a failure of the backend's own collaborators
// (the WhatsApp provider, Stripe). Polling absorbs these; everything else
// surfaces them to the caller.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
