package constants

import "errors"

// CLI configuration errors.
var (
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrValueRequired    = errors.New("a value is required")
)
