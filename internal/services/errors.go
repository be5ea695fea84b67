package services

import (
	"errors"

	apierrors "keygate/internal/errors"
)

var (
	// ErrStoreFailure wraps every error raised by the key store. Handlers
	// answer it with a 500 problem that hides the cause.
	ErrStoreFailure = apierrors.ErrStoreFailure

	// ErrNotReady is returned by readiness checks when a dependency is down.
	ErrNotReady = errors.New("service not ready")
)
