package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("part not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
