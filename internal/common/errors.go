// Package common defines sentinel errors and small helpers shared by the
// server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorValidation         = errors.New("validation error")
	ErrorInvalidCredentials = errors.New("incorrect username or password")
	ErrorForbidden          = errors.New("not authorized")

	// ErrInvalidToken covers every token failure: malformed, bad signature,
	// expired or naming an unknown subject.
	ErrInvalidToken = errors.New("could not validate credentials")
)
