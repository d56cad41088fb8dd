package db

import "errors"

// Common repository errors
var (
	// ErrPresentationNotFound is returned when a presentation does not
	// exist in the catalog
	ErrPresentationNotFound = errors.New("presentation not found")

	// ErrDuplicateSlug is returned when a presentation slug is already
	// taken
	ErrDuplicateSlug = errors.New("presentation slug already exists")
)
