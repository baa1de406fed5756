package registry

import (
	"errors"
)

// Sentinel kinds for registry errors.
var (
	ErrUnknownStore = errors.New("unknown store")
)
