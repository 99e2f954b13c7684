package browser

import (
	"errors"
	"fmt"
)

// Kind identifies which step of the submission state machine failed.
type Kind string

const (
	KindLaunchFailed      Kind = "launch_failed"
	KindNavigationTimeout Kind = "navigation_timeout"
	KindLoginFormNotFound Kind = "login_form_not_found"
	KindSubmitFailed      Kind = "submit_failed"
)

// Error is the driver's failure type. Submitted counts the notes that
// completed before the run aborted; already-submitted notes are never rolled
// back because the tracker side-effects are not transactional.
type Error struct {
	Kind      Kind
	Submitted int
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain. Returns "" when the
// error did not originate from the driver.
func KindOf(err error) Kind {
	var driverErr *Error
	if errors.As(err, &driverErr) {
		return driverErr.Kind
	}
	return ""
}

// SubmittedCount reports how many notes a failed run managed to submit.
func SubmittedCount(err error) int {
	var driverErr *Error
	if errors.As(err, &driverErr) {
		return driverErr.Submitted
	}
	return 0
}
