package api

// Field order in every response struct is alphabetical by JSON name so
// encoded bodies come out with sorted keys.

// Status values used in response bodies
const (
	StatusOK      = "ok"
	StatusDeleted = "deleted"
	StatusError   = "error"
	StatusInvalid = "invalid"
	StatusExpired = "expired"
)

// Verify messages
const (
	MessageAPIOnline      = "API online"
	MessageMissingKey     = "missing key"
	MessageKeyNotFound    = "key not found"
	MessageKeyExpired     = "key expired"
	MessageHwidMismatch   = "hwid mismatch"
	MessageKeyValid       = "key valid"
	MessageKeyValidBypass = "key valid (bypass)"
)

// MessageResponse is used by GET / and by verification outcomes without an id
type MessageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// CreateKeyResponse is returned by POST /keys
type CreateKeyResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// StatusResponse is returned by PATCH and DELETE
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of a rejected administrative request
type ErrorResponse struct {
	Error string `json:"error"`
}

// VerifyResponse is returned by GET /verify. ID is present on success only.
type VerifyResponse struct {
	ID      *int64 `json:"id,omitempty"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// KeyView is one element of GET /keys
type KeyView struct {
	CreatedAt string  `json:"created_at"`
	ExpiresAt string  `json:"expires_at"`
	Hwid      *string `json:"hwid"`
	ID        int64   `json:"id"`
	Key       string  `json:"key"`
	Months    int     `json:"months"`
}
