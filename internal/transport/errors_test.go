package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrorKindLoad, "load"},
		{ErrorKindAutoplay, "autoplay"},
		{ErrorKindDecode, "decode"},
		{ErrorKindTimeout, "timeout"},
		{ErrorKindGeneric, "generic"},
		{ErrorKind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestNewError_Recoverable(t *testing.T) {
	assert.True(t, NewError(ErrorKindLoad, "m", nil).Recoverable)
	assert.True(t, NewError(ErrorKindTimeout, "m", nil).Recoverable)
	assert.False(t, NewError(ErrorKindAutoplay, "m", nil).Recoverable)
	assert.False(t, NewError(ErrorKindDecode, "m", nil).Recoverable)
	assert.False(t, NewError(ErrorKindGeneric, "m", nil).Recoverable)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewError(ErrorKindLoad, "load failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "load failed")
	assert.Contains(t, err.Error(), "underlying")
}

func TestIsAutoplayDenial(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", ErrPlaybackNotAllowed, true},
		{"wrapped sentinel", fmt.Errorf("play: %w", ErrPlaybackNotAllowed), true},
		{"autoplay kind", NewError(ErrorKindAutoplay, "blocked", nil), true},
		{"load kind", NewError(ErrorKindLoad, "failed", nil), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAutoplayDenial(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"autoplay sentinel", ErrPlaybackNotAllowed, ErrorKindAutoplay},
		{"timeout message", errors.New("request timed out"), ErrorKindTimeout},
		{"deadline exceeded", context.DeadlineExceeded, ErrorKindTimeout},
		{"decode message", errors.New("failed to decode stream"), ErrorKindDecode},
		{"unsupported format", errors.New("unsupported media format"), ErrorKindDecode},
		{"network message", errors.New("network unreachable"), ErrorKindLoad},
		{"connection message", errors.New("connection refused"), ErrorKindLoad},
		{"generic", errors.New("something odd"), ErrorKindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terr := Classify(tt.err)
			require.NotNil(t, terr)
			assert.Equal(t, tt.want, terr.Kind)
			assert.True(t, errors.Is(terr, tt.err))
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	original := NewError(ErrorKindDecode, "bad stream", nil)
	assert.Same(t, original, Classify(original))
	assert.Nil(t, Classify(nil))
}
