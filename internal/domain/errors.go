package domain

import "errors"

var (
	ErrInvalidName    = errors.New("name is required")
	ErrInvalidPhone   = errors.New("phone must be exactly 11 digits")
	ErrDuplicatePhone = errors.New("phone already registered")
)
