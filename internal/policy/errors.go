// Package policy implements profit-threshold optimization for retention offers.
package policy

import "errors"

var (
	// ErrEmptyPortfolio indicates there are no scored customers to evaluate
	ErrEmptyPortfolio = errors.New("portfolio is empty")

	// ErrLengthMismatch indicates probabilities and labels differ in length
	ErrLengthMismatch = errors.New("probabilities and labels length mismatch")

	// ErrEmptyGrid indicates no thresholds were supplied
	ErrEmptyGrid = errors.New("threshold grid is empty")

	// ErrInvalidThreshold indicates a threshold outside (0, 1)
	ErrInvalidThreshold = errors.New("threshold must be in (0, 1)")

	// ErrInvalidParams indicates non-positive LTV or negative offer cost
	ErrInvalidParams = errors.New("invalid business parameters")
)
