package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver("http://localhost:8080/media", S3Options{})
	require.NoError(t, err)
	return r
}

func TestResolve_HTTPPassthrough(t *testing.T) {
	r := newLocalResolver(t)

	tests := []struct {
		name   string
		source string
	}{
		{"https URL", "https://cdn.example.com/audio/narration.mp3"},
		{"http URL", "http://cdn.example.com/audio/narration.mp3"},
		{"https URL with query", "https://cdn.example.com/narration.mp3?v=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.source, got)
		})
	}
}

func TestResolve_LocalLibraryPaths(t *testing.T) {
	r := newLocalResolver(t)

	tests := []struct {
		name    string
		source  string
		want    string
		wantErr bool
	}{
		{"bare filename", "narration.mp3", "http://localhost:8080/media/narration.mp3", false},
		{"nested path", "deck-1/narration.mp3", "http://localhost:8080/media/deck-1/narration.mp3", false},
		{"leading slash stripped", "/narration.mp3", "http://localhost:8080/media/narration.mp3", false},
		{"redundant segments cleaned", "deck-1/./narration.mp3", "http://localhost:8080/media/deck-1/narration.mp3", false},
		{"parent traversal rejected", "../etc/passwd", "", true},
		{"embedded traversal rejected", "deck-1/../../etc/passwd", "", true},
		{"empty source rejected", "", "", true},
		{"root path rejected", "/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.source)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_TrailingSlashBaseURL(t *testing.T) {
	r, err := NewResolver("http://localhost:8080/media/", S3Options{})
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "narration.mp3")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/narration.mp3", got)
}

func TestResolve_S3WithoutConfiguration(t *testing.T) {
	r := newLocalResolver(t)

	_, err := r.Resolve(context.Background(), "s3://media-bucket/narration.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no S3 configuration")
}

func TestResolve_S3URLForms(t *testing.T) {
	r, err := NewResolver("http://localhost:8080/media", S3Options{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	require.NoError(t, err)

	t.Run("missing key rejected", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "s3://media-bucket")
		assert.Error(t, err)
	})

	t.Run("missing bucket rejected", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "s3:///narration.mp3")
		assert.Error(t, err)
	})

	t.Run("bucket and key presigned", func(t *testing.T) {
		got, err := r.Resolve(context.Background(), "s3://media-bucket/deck-1/narration.mp3")
		require.NoError(t, err)
		assert.Contains(t, got, "media-bucket")
		assert.Contains(t, got, "deck-1/narration.mp3")
		assert.Contains(t, got, "X-Amz-Signature")
	})
}
