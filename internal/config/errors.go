package config

import "errors"

var (
	// ErrLoadConfig wraps failures reading the YAML file or the HANDOUT_ env.
	ErrLoadConfig = errors.New("load handout config")

	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid handout config")

	// ErrUnknownBackend marks a store.backend outside the supported set. It is
	// reported together with ErrInvalidConfig.
	ErrUnknownBackend = errors.New("unknown store backend")
)
