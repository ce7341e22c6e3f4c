package service

import (
	"errors"

	"github.com/workbridge/backend/internal/repository"
)

var (
	// ErrUnauthenticated is returned when no caller identity was resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller is not the required party of the project.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the project or a referenced entity does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrInvalidInput is returned by non-workflow operations for malformed input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned when a project lifecycle move is not allowed.
	ErrInvalidTransition = errors.New("invalid transition")
)
