package transport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a transport error
type ErrorKind int

const (
	// ErrorKindLoad indicates the resource failed to buffer in time
	ErrorKindLoad ErrorKind = iota
	// ErrorKindAutoplay indicates the platform declined to start playback
	// without a direct user gesture
	ErrorKindAutoplay
	// ErrorKindDecode indicates the resource is unplayable (format or
	// decode failure)
	ErrorKindDecode
	// ErrorKindTimeout indicates an operation timed out
	ErrorKindTimeout
	// ErrorKindGeneric indicates an unclassified runtime failure
	ErrorKindGeneric
)

// String returns the string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindLoad:
		return "load"
	case ErrorKindAutoplay:
		return "autoplay"
	case ErrorKindDecode:
		return "decode"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Sentinel errors surfaced by mediums and the adapter
var (
	// ErrPlaybackNotAllowed is the platform's "needs a user gesture"
	// denial. It is an expected condition, not a bug: callers prompt for
	// manual interaction instead of retrying.
	ErrPlaybackNotAllowed = errors.New("playback not allowed without user interaction")

	// ErrNoMedium indicates no medium is attached to the adapter
	ErrNoMedium = errors.New("no medium attached")

	// ErrNotReady indicates the medium has no playable data yet
	ErrNotReady = errors.New("medium not ready")

	// ErrMediumClosed indicates the medium was torn down
	ErrMediumClosed = errors.New("medium closed")
)

// Error is a structured transport error with classification
type Error struct {
	Kind        ErrorKind
	Message     string
	Cause       error
	Recoverable bool
}

// NewError creates a transport error of the given kind
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Kind:        kind,
		Message:     message,
		Cause:       cause,
		Recoverable: kind == ErrorKindLoad || kind == ErrorKindTimeout,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsAutoplayDenial reports whether the error is the autoplay-policy class.
// It must be distinguishable from generic failures so callers can prompt
// for a manual interaction instead of retrying blindly.
func IsAutoplayDenial(err error) bool {
	if errors.Is(err, ErrPlaybackNotAllowed) {
		return true
	}
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == ErrorKindAutoplay
}

// Classify converts a generic error into a transport Error
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var terr *Error
	if errors.As(err, &terr) {
		return terr
	}

	if errors.Is(err, ErrPlaybackNotAllowed) {
		return NewError(ErrorKindAutoplay, "playback blocked pending user interaction", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return NewError(ErrorKindTimeout, "operation timed out", err)
	case strings.Contains(msg, "decode") || strings.Contains(msg, "format") || strings.Contains(msg, "unsupported"):
		return NewError(ErrorKindDecode, "source is unplayable", err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection") || strings.Contains(msg, "no such host"):
		return NewError(ErrorKindLoad, "network error while loading source", err)
	default:
		return NewError(ErrorKindGeneric, "playback failed", err)
	}
}
