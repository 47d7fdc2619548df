package fixture

import "errors"

// Sentinel errors for the programmer-error taxonomy in spec §7. Each is
// wrapped with fmt.Errorf("%w: ...") at its call site so callers can use
// errors.Is while still getting a descriptive message, following the
// teacher's internal/config/config.go wrapping convention.
var (
	// ErrUnknownConnection is returned when a Server method names a
	// connection ID that is not currently active.
	ErrUnknownConnection = errors.New("fixture: unknown connection")

	// ErrConfigurationError is returned when a pre-start-only setting
	// (currently BufferSize) is changed after Start has been called.
	ErrConfigurationError = errors.New("fixture: configuration error")
)
