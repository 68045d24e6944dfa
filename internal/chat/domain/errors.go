package domain

import "errors"

var (
	// ErrStorage masks persistence failures; details stay in the logs.
	ErrStorage = errors.New("storage operation failed")
	// ErrNotFound the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrValidation the request payload failed validation
	ErrValidation = errors.New("invalid request")
)
