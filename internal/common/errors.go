// Package common defines sentinel errors shared by the bizsync packages.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid document path")

	// Image resolution errors. Any of them aborts a backup.
	ErrImageMissing      = errors.New("image file does not exist")
	ErrImageEmpty        = errors.New("image file is empty")
	ErrImageUnreadable   = errors.New("image file is not readable")
	ErrNoContentResolver = errors.New("no content resolver configured")

	// Identity errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoSession    = errors.New("no owner signed in")
)
