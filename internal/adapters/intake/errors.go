package intake

import "errors"

// Sentinel error kinds for this package.
var (
	ErrMalformedCatalog      = errors.New("malformed catalog")
	ErrMalformedApplications = errors.New("malformed applications")
	ErrMalformedTerms        = errors.New("malformed terms")
	ErrMissingColumn         = errors.New("missing column")
)
