package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrInvalidRequest = errors.New("invalid draw request")
	ErrNoStore        = errors.New("no snapshot store configured")
	ErrSnapshot       = errors.New("snapshot not saved")
)
