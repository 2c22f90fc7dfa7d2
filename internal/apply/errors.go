package apply

import "errors"

var (
	// ErrFill covers prepare and fill failures.
	ErrFill = errors.New("fill failed")
	// ErrReview means the adapter could not reach the page before submission.
	ErrReview = errors.New("review step failed")
	// ErrSubmit covers a failed or unconfirmed final submission.
	ErrSubmit = errors.New("submit failed")
	// ErrBrowser means no browser session could be opened.
	ErrBrowser = errors.New("browser unavailable")
	// ErrPersist means a status change could not be saved mid-run.
	ErrPersist = errors.New("state not saved")

	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotResettable     = errors.New("application cannot be reset")
)
