package contract

import "errors"

var (
	// ErrCreateFailed wraps gateway failures during payee/payment creation,
	// which surface to the user instead of degrading to placeholders.
	ErrCreateFailed = errors.New("create request failed")

	ErrInvalidRecord = errors.New("record failed validation")
)
