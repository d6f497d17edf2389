package tracking

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("tracking: invalid config")

	// ErrNotDetecting is returned when a frame is processed by an idle session.
	ErrNotDetecting = errors.New("tracking: session is not detecting")

	// ErrCameraUnavailable is returned when the landmark source cannot be opened.
	ErrCameraUnavailable = errors.New("tracking: camera unavailable")
)
