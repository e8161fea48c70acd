package errors

import "fmt"

var (
	ErrLocationRequired = fmt.Errorf("location required")
	ErrAccessDenied     = fmt.Errorf("access denied")
	ErrAlreadyActive    = fmt.Errorf("a session is already active")
	ErrNotActive        = fmt.Errorf("no active session")
	ErrZoneExpired      = fmt.Errorf("zone expired")
	ErrTransportOffline = fmt.Errorf("transport offline")
	ErrUnsupportedMedia = fmt.Errorf("unsupported media payload")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
