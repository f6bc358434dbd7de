package compression

import (
	"errors"
	"fmt"
)

var (
	// ErrCompressionFailed is the single terminal failure surfaced to callers
	// after every executor in the fallback chain has been exhausted.
	ErrCompressionFailed = errors.New("compression failed: try a different file or quality tier")

	// ErrCancelled is returned when the caller's context is cancelled
	// mid-pipeline. In-flight encoder processes and frame buffers are
	// released before it is returned.
	ErrCancelled = errors.New("compression cancelled")

	// ErrInvalidDuration is returned when bitrate planning is attempted with
	// a non-positive source duration. Callers must probe the source first.
	ErrInvalidDuration = errors.New("source duration must be positive")

	// ErrUnknownPolicy is returned when a policy name does not resolve to a
	// registered strategy.
	ErrUnknownPolicy = errors.New("unknown compression policy")
)

// ConfigurationError indicates an executor could not be set up (missing
// encoder, unsupported configuration). It triggers fallback to the next
// executor in the chain.
type ConfigurationError struct {
	Stage string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration failed at %s: %v", e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DecodeError indicates the source media cannot be read or decoded. It is
// fatal for the request: every executor needs decoded frames, so no fallback
// is attempted.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError indicates a mid-pipeline failure from the active encoder.
// Like ConfigurationError it triggers fallback to the next executor.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode failed: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ThumbnailError indicates thumbnail extraction failed. It never aborts the
// main compression; the result simply omits the thumbnail.
type ThumbnailError struct {
	Err error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail extraction failed: %v", e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }

// isRecoverable reports whether an executor failure should trigger fallback
// to the next executor rather than abort the request.
func isRecoverable(err error) bool {
	var cfgErr *ConfigurationError
	var encErr *EncodeError
	return errors.As(err, &cfgErr) || errors.As(err, &encErr)
}
