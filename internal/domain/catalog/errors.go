package catalog

import (
	"errors"
)

// Sentinel kinds for catalog errors.
var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrNoResolver      = errors.New("no product resolver configured")
)
