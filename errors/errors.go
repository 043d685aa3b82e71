package errors

import "fmt"

var (
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)
