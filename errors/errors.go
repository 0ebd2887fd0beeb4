package errors

import "fmt"

var (
	// ErrValidation rejects a request with an empty required field or an
	// empty campaign audience. Always surfaced synchronously to the caller.
	ErrValidation = fmt.Errorf("validation failed")

	// ErrNotFound marks an unknown campaign, chat or contact.
	ErrNotFound = fmt.Errorf("not found")

	// ErrTransientIO marks a failed ledger write or connection send.
	// Surfaced on the direct request path, logged and swallowed inside
	// fire-and-forget work.
	ErrTransientIO = fmt.Errorf("transient i/o failure")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
