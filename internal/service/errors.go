package service

import "errors"

var (
	ErrValidation       = errors.New("validation")      // 400
	ErrNotFound         = errors.New("not found")       // 404
	ErrConflict         = errors.New("conflict")        // 409
	ErrPaymentGateway   = errors.New("payment gateway") // 502
	ErrMissingReference = errors.New("missing tx_ref")  // 400
	ErrUnknownStatus    = errors.New("unknown status")  // 400
	ErrOrderNotFound    = errors.New("order not found") // 404
	ErrInvalidCreds     = errors.New("invalid credentials")
	ErrUserExists       = errors.New("user already exist")
)
