package core

import "errors"

var (
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrNotInitialized is returned by systems used before their Initialize.
	ErrNotInitialized = errors.New("system not initialized")
	ErrShutdown       = errors.New("system already shut down")
)
