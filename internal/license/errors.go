package license

import "errors"

// Error codes for key operations, used in problem details and logs.
const (
	ErrCodeKeyRequired  = "KEY_REQUIRED"
	ErrCodeNoValidField = "NO_VALID_FIELD"
	ErrCodeNotFound     = "KEY_NOT_FOUND"
	ErrCodeExpired      = "KEY_EXPIRED"
	ErrCodeMismatch     = "HWID_MISMATCH"
	ErrCodeMonthsRange  = "MONTHS_OUT_OF_RANGE"
)

var (
	// ErrKeyRequired is returned when a key is created without a key string.
	ErrKeyRequired = errors.New("key required")

	// ErrNoValidField is returned when an update carries no editable field.
	ErrNoValidField = errors.New("no valid field")

	// ErrMonthsOutOfRange is returned when months would put the expiry
	// outside a four-digit year.
	ErrMonthsOutOfRange = errors.New("months out of range")
)
