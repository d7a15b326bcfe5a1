package domain

import "errors"

var (
	ErrValidation        = errors.New("validation")
	ErrEmptyCart         = errors.New("empty cart")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidTransition = errors.New("invalid order transition")
)
