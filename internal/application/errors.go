package application

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	// ErrNoQuote means every source failed and the cache is cold.
	ErrNoQuote = errors.New("no quote available")
	// ErrInvalidRange means end precedes start.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrRangeTooLarge means the requested span exceeds the 10-year maximum.
	ErrRangeTooLarge = errors.New("date range too large")
)
