package shopify

import (
	"errors"
)

// Sentinel kinds for resolution errors.
var (
	ErrNotFound = errors.New("product not found")
	ErrUpstream = errors.New("shopify request failed")
)
