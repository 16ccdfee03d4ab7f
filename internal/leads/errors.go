package leads

import "errors"

var (
	// ErrInvalidKey is returned when a lead-ad delivery carries the wrong shared secret
	ErrInvalidKey = errors.New("leads: invalid google_key")

	// ErrConfigUnavailable is returned when the tenant config could not be loaded
	ErrConfigUnavailable = errors.New("leads: tenant config unavailable")

	// ErrForwardFailed is returned when the CRM did not accept the lead
	ErrForwardFailed = errors.New("leads: forward failed")
)
