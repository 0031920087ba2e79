package schema

import "errors"

var (
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrInvalidCatalog   = errors.New("invalid catalog")
)
