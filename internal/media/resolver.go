// Package media resolves the source URLs embedded in timelines into
// URLs a playback medium can actually fetch.
package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Resolver turns a timeline's srcUrl into a fetchable URL. Absolute
// http(s) URLs pass through untouched, bare paths are served from the
// media library under the public base URL, and s3:// URLs are exchanged
// for presigned GET links.
type Resolver struct {
	publicBaseURL string
	presigner     *s3.PresignClient
	presignTTL    time.Duration
}

// S3Options holds the S3 client configuration for presigned resolution
type S3Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// NewResolver creates a resolver. S3 support is optional: with a zero
// S3Options, s3:// sources resolve to an error instead of a URL.
func NewResolver(publicBaseURL string, opts S3Options) (*Resolver, error) {
	r := &Resolver{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		presignTTL:    opts.PresignTTL,
	}

	if opts.Region == "" && opts.Endpoint == "" {
		return r, nil
	}

	ctx := context.Background()

	var cfg aws.Config
	var err error

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			)),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // Required for MinIO and similar services
		})
	}

	client := s3.NewFromConfig(cfg, clientOpts...)
	r.presigner = s3.NewPresignClient(client)

	if r.presignTTL <= 0 {
		r.presignTTL = 15 * time.Minute
	}

	return r, nil
}

// Resolve maps a timeline source URL to a fetchable URL
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("empty source URL")
	}

	switch {
	case strings.HasPrefix(sourceURL, "http://"), strings.HasPrefix(sourceURL, "https://"):
		return sourceURL, nil
	case strings.HasPrefix(sourceURL, "s3://"):
		return r.resolveS3(ctx, sourceURL)
	default:
		return r.resolveLocal(sourceURL)
	}
}

// resolveLocal maps a library-relative path onto the public base URL.
// Parent segments are rejected on the raw input, before path.Clean has a
// chance to collapse them away.
func (r *Resolver) resolveLocal(sourceURL string) (string, error) {
	for _, segment := range strings.Split(sourceURL, "/") {
		if segment == ".." {
			return "", fmt.Errorf("invalid media path: %s", sourceURL)
		}
	}

	cleaned := path.Clean("/" + strings.TrimPrefix(sourceURL, "/"))
	if cleaned == "/" {
		return "", fmt.Errorf("invalid media path: %s", sourceURL)
	}
	return r.publicBaseURL + cleaned, nil
}

// resolveS3 exchanges an s3://bucket/key URL for a presigned GET link
func (r *Resolver) resolveS3(ctx context.Context, sourceURL string) (string, error) {
	if r.presigner == nil {
		return "", fmt.Errorf("s3 source %q but no S3 configuration", sourceURL)
	}

	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("malformed s3 URL: %w", err)
	}

	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", fmt.Errorf("s3 URL must be s3://bucket/key, got %s", sourceURL)
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.presignTTL))

	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}

	return req.URL, nil
}
