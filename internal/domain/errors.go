package domain

import "errors"

var (
	// ErrPlatformUnavailable means the pointer or display could not be queried.
	// Transient: the sample is skipped.
	ErrPlatformUnavailable = errors.New("platform query unavailable")

	// ErrConfigNotFound means no configuration has been saved yet.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrConfigCorrupted means a configuration exists but cannot be used.
	// It is reported to the user and never replaced by defaults.
	ErrConfigCorrupted = errors.New("configuration corrupted")

	// ErrProcessEnumeration means the process table could not be read.
	ErrProcessEnumeration = errors.New("failed to enumerate processes")

	// ErrSpawn means a new agent process could not be started.
	ErrSpawn = errors.New("failed to spawn agent process")

	// ErrTerminate means a running agent process could not be killed.
	ErrTerminate = errors.New("failed to terminate agent process")

	// ErrAlreadyRunning means another process holds an exclusive agent lock.
	ErrAlreadyRunning = errors.New("another agent holds the lock")

	// ErrNoTerminal means the configuration UI needs an interactive terminal.
	ErrNoTerminal = errors.New("configuration requires an interactive terminal")
)
