package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrNotFound           = errors.New("not found")
	ErrProtectedAccount   = errors.New("protected account")
	ErrSelfDeletion       = errors.New("cannot delete or deactivate own account")
	ErrStorage            = errors.New("storage error")
	ErrInvalidInput       = errors.New("invalid input")
)
