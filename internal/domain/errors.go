package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidProject  = errors.New("invalid project")
	ErrInvalidPlantUML = errors.New("invalid plantuml document")
	ErrBodyTooLarge    = errors.New("request body too large")
)
