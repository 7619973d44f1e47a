// Package scorer provides the client for the churn scoring service.
package scorer

import "errors"

var (
	// ErrScorerUnavailable indicates the scoring service is unreachable
	ErrScorerUnavailable = errors.New("scoring service unavailable")

	// ErrInvalidScore indicates the returned probability is outside [0, 1]
	ErrInvalidScore = errors.New("invalid probability score")

	// ErrInvalidResponse indicates an invalid response from the scoring service
	ErrInvalidResponse = errors.New("invalid response from scoring service")

	// ErrConnectionFailed indicates the HTTP request failed
	ErrConnectionFailed = errors.New("scoring service connection failed")

	// ErrBatchSizeMismatch indicates the batch response has the wrong length
	ErrBatchSizeMismatch = errors.New("batch response size mismatch")
)
