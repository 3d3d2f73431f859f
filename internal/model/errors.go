package model

import "errors"

// Service-level error taxonomy. Handlers map these to transport status codes;
// services never log-and-swallow, every failure propagates as one of these or
// a wrapped storage error.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state")
)

// Token verification failure kinds. Useful for logging, but callers facing
// clients collapse both into ErrUnauthorized so expiry cannot be told apart
// from a forged signature.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)
