package status

import "errors"

var (
	ErrInvalidCredentials  = errors.New("auth: invalid email or password")
	ErrUnauthenticated     = errors.New("auth: sign in required")
	ErrProfileMissing      = errors.New("auth: profile not found")
	ErrNotFound            = errors.New("record: not found")
	ErrInvalidQuantity     = errors.New("booking: quantity out of range")
	ErrSoldOut             = errors.New("booking: not enough tickets left")
	ErrDuplicateSubmission = errors.New("booking: already submitted")
)
