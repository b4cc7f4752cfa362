package domain

import "errors"

var (
	// ErrValidation indicates caller-supplied data failed a contract
	// precondition (empty text, missing id, out-of-enum value).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced identity has no matching record.
	ErrNotFound = errors.New("record not found")
	// ErrStorage indicates the durable store is unreachable or rejected an
	// operation.
	ErrStorage = errors.New("storage error")
	// ErrMalformedPayload indicates a webhook document does not match the
	// expected nested shape. Always recoverable: skip and continue.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrDuplicateEntry indicates a unique constraint violation on insert.
	ErrDuplicateEntry = errors.New("duplicate entry")
)
