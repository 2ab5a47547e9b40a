package leadersvc

import "errors"

// Sentinel errors returned by the LeaderService.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionRequired is returned when the NATS connection is nil and
	// no custom elector was supplied.
	ErrConnectionRequired = errors.New("NATS connection is required")

	// ErrFactoryRequired is returned when the delegate factory is nil.
	ErrFactoryRequired = errors.New("delegate factory is required")

	// ErrAlreadyStarted is returned when Start is called on a service that is
	// already running or has already been stopped.
	ErrAlreadyStarted = errors.New("leader service already started")

	// ErrNotStarted is returned when Stop is called on a service that hasn't
	// been started.
	ErrNotStarted = errors.New("leader service not started")

	// ErrCoordinationUnavailable is returned when the election backend cannot
	// be reached during startup.
	ErrCoordinationUnavailable = errors.New("coordination service unavailable")
)
