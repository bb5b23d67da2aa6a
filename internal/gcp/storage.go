package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectNotFound is returned when a blob does not exist.
var ErrObjectNotFound = errors.New("object not found")

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt reads an integer environment variable.
func GetEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// GetEnvDuration reads a duration environment variable such as "60s".
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

// GCSStore is the blob store for photos and generated reports, backed by one bucket.
type GCSStore struct {
	client         *storage.Client
	bucket         string
	maxRetries     int
	initialBackoff time.Duration
	attemptTimeout time.Duration
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{
		client:         client,
		bucket:         bucket,
		maxRetries:     4,
		initialBackoff: time.Second,
		attemptTimeout: 50 * time.Second,
	}
}

// Upload writes data to name, replacing any existing object. Transient
// failures are retried with exponential backoff.
func (s *GCSStore) Upload(ctx context.Context, name, contentType string, data []byte) error {
	return retryWithBackoff(ctx, name, s.maxRetries, s.initialBackoff, s.attemptTimeout, func(writeCtx context.Context) error {
		w := s.client.Bucket(s.bucket).Object(name).NewWriter(writeCtx)
		w.ContentType = contentType
		w.CacheControl = "no-cache, max-age=0"

		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			_ = w.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
}

// retryWithBackoff runs attempt up to maxRetries times. Each attempt gets at
// most attemptTimeout; when ctx carries a deadline the time left is shared
// between the remaining attempts so a caller's budget never starves the
// later ones. There is no wait after the final attempt.
func retryWithBackoff(ctx context.Context, name string, maxRetries int, backoff, attemptTimeout time.Duration, attempt func(context.Context) error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		timeout := attemptTimeout
		if deadline, ok := ctx.Deadline(); ok {
			if share := time.Until(deadline) / time.Duration(maxRetries-i); share < timeout {
				timeout = share
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := attempt(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries-1 {
			break
		}

		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", name,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	return fmt.Errorf("upload for %s failed after all retries: %w", name, lastErr)
}

// Download returns the content of name, or ErrObjectNotFound.
func (s *GCSStore) Download(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", s.bucket, name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, name, err)
	}
	return data, nil
}

// Exists reports whether name is present in the bucket.
func (s *GCSStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat gs://%s/%s: %w", s.bucket, name, err)
}

// SignedURL returns a V4 GET link for name valid for ttl. Missing objects
// yield ErrObjectNotFound rather than a link that would 404 later.
func (s *GCSStore) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("gs://%s/%s: %w", s.bucket, name, ErrObjectNotFound)
	}
	url, err := s.client.Bucket(s.bucket).SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for gs://%s/%s: %w", s.bucket, name, err)
	}
	return url, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
