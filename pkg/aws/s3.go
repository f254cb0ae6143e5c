package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client creates a path-style S3 client, optionally bound to a custom endpoint.
func NewS3Client(cfg sdkaws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = sdkaws.String(endpoint)
		}
	})
}

// S3Store uploads objects to a single bucket and hands back durable public URLs.
type S3Store struct {
	client    S3API
	uploader  *manager.Uploader
	bucket    string
	endpoint  string
	cdnDomain string
}

func NewS3Store(client S3API, bucket, endpoint, cdnDomain string) *S3Store {
	return &S3Store{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		endpoint:  endpoint,
		cdnDomain: cdnDomain,
	}
}

// Upload writes body to key and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = sdkaws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object a previously returned URL points at. A missing
// object counts as deleted.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, err := s.KeyFromURL(ref)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PublicURL prefers the CDN domain, then the custom endpoint, then the virtual-hosted S3 URL.
// Each key segment is path-escaped so KeyFromURL recovers the exact key.
func (s *S3Store) PublicURL(key string) string {
	escaped := escapeKey(key)
	switch {
	case s.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(s.cdnDomain, "/"), escaped)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escaped)
	}
}

// KeyFromURL is the inverse of PublicURL.
func (s *S3Store) KeyFromURL(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("invalid object url %q", ref)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("object url %q has an unescaped key", ref)
	}
	// u.Path is already unescaped
	path := strings.TrimPrefix(u.Path, "/")
	if s.cdnDomain == "" && s.endpoint != "" {
		prefix := s.bucket + "/"
		if !strings.HasPrefix(path, prefix) {
			return "", fmt.Errorf("object url %q is outside bucket %s", ref, s.bucket)
		}
		path = strings.TrimPrefix(path, prefix)
	}
	if path == "" {
		return "", errors.New("object url has no key")
	}
	return path, nil
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
