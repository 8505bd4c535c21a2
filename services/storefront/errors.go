package storefront

import "fmt"

// NavigationError means the storefront root page did not load within
// the bounded wait.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to open storefront %s: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error { return e.Cause }

// TransientError is a recoverable submission fault: the form rejected
// the order or the confirmation did not appear in time. The same order
// is safe to resubmit against the live session, submission is
// idempotent per full-field fill.
type TransientError struct {
	Reason string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient submission failure: %s", e.Reason)
}

// FatalError is an unrecoverable session fault. The navigator has
// already released the session when it returns one; the caller must
// reopen before submitting again.
type FatalError struct {
	Reason string
	Cause  error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal session failure: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("fatal session failure: %s", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Cause }
