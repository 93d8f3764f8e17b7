package errs

import "errors"

var (
	// auth
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidIssuer      = errors.New("invalid issuer")
	ErrTokenExpired       = errors.New("token expired or not valid yet")
	ErrInvalidSubject     = errors.New("invalid subject")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// validation
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrEmptyPasswordHash = errors.New("empty password hash")
	ErrPasswordTooShort  = errors.New("password too short")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrEmptyText         = errors.New("message text is empty")
	ErrTextTooLong       = errors.New("message text is too long")
	ErrMissingMessageID  = errors.New("message id is required")

	// messages
	ErrMessageNotFound = errors.New("message not found")
	ErrForbidden       = errors.New("not authorized to delete this message")

	// storage
	ErrPersistence = errors.New("storage unavailable")
)
