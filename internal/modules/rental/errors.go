package rental

import "errors"

var (
	ErrValidation      = errors.New("validation_error")
	ErrNotFound        = errors.New("not_found")
	ErrForbidden       = errors.New("forbidden")
	ErrItemUnavailable = errors.New("item_unavailable")
	ErrInvalidStatus   = errors.New("invalid_status")
)
