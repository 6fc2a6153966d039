package errors

import "fmt"

var (
	ErrInvalidMessage   = fmt.Errorf("invalid message")
	ErrStoreUnavailable = fmt.Errorf("message store unavailable")
	ErrNotFound         = fmt.Errorf("message not found")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
)
