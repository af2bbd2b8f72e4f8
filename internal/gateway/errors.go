package gateway

import "errors"

var (
	ErrNotFound           = errors.New("row not found")
	ErrUnknownTable       = errors.New("unknown table")
	ErrUnknownColumn      = errors.New("unknown column")
	ErrConstraint         = errors.New("constraint violation")
	ErrMissingFilter      = errors.New("update and delete require at least one filter")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrSubscriptionClosed = errors.New("subscription closed")
)
