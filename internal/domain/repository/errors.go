package repository

import "errors"

var (
	// ErrClipNotFound is returned when a clip cannot be found.
	ErrClipNotFound = errors.New("clip not found")

	// ErrDuplicateClip is returned when attempting to create a clip that already exists.
	ErrDuplicateClip = errors.New("clip already exists")

	// ErrObjectNotFound is returned when a stored object cannot be found.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
)
