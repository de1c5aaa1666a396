package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotFound       = errors.New("draw not found")
	ErrExists         = errors.New("draw already stored")
	ErrInvalidID      = errors.New("invalid run or lottery id")
	ErrUnknownBackend = errors.New("unknown store backend")
)
