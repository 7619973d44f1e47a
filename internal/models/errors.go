package models

import "errors"

// Custom errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateKey    = errors.New("duplicate key violation")
	ErrInvalidID       = errors.New("invalid ID format")
	ErrMissingColumn   = errors.New("missing required column")
	ErrMalformedRecord = errors.New("malformed record")
)
