package tracking

import (
	"errors"
)

// Sentinel kinds for tracking errors.
var (
	ErrInvalidEvent = errors.New("invalid event")
)
