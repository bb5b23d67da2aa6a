package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
)

var (
	ErrPathRequired  = errors.New("path is required")
	ErrPathForbidden = errors.New("path is outside the served prefixes")
)

// Resolver modes.
const (
	ModeRedirect = "redirect"
	ModeProxy    = "proxy"
)

// ResolverConfig holds configuration for the link-resolution endpoint.
type ResolverConfig struct {
	BaseConfig
	Mode string
}

// Resolution is either a redirect target or the object bytes themselves.
type Resolution struct {
	RedirectURL string
	Data        []byte
	ContentType string
}

// ResolverFunction turns a stored report link back into the object it names.
type ResolverFunction struct {
	blobs  BlobStore
	config ResolverConfig
}

func loadResolverConfig() (*ResolverConfig, error) {
	base, err := loadBaseConfig(true)
	if err != nil {
		return nil, err
	}
	mode := gcp.GetEnv("RESOLVER_MODE", ModeRedirect)
	if mode != ModeRedirect && mode != ModeProxy {
		return nil, fmt.Errorf("invalid RESOLVER_MODE %q", mode)
	}
	return &ResolverConfig{BaseConfig: *base, Mode: mode}, nil
}

// NewResolver creates a ResolverFunction backed by Cloud Storage.
func NewResolver(ctx context.Context) (*ResolverFunction, error) {
	config, err := loadResolverConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	blobs, err := newBlobStore(ctx, &config.BaseConfig)
	if err != nil {
		return nil, err
	}
	slog.Info("File resolver initialized.", "bucket", config.Bucket, "mode", config.Mode)
	return NewResolverWithDeps(*config, blobs), nil
}

// NewResolverWithDeps wires a resolver from explicit collaborators.
func NewResolverWithDeps(config ResolverConfig, blobs BlobStore) *ResolverFunction {
	if config.Mode == "" {
		config.Mode = ModeRedirect
	}
	return &ResolverFunction{blobs: blobs, config: config}
}

// Resolve validates objectPath and returns a freshly signed redirect, or in
// proxy mode the raw bytes with a content type inferred from the extension.
func (f *ResolverFunction) Resolve(ctx context.Context, objectPath string) (*Resolution, error) {
	clean, err := f.validate(objectPath)
	if err != nil {
		return nil, err
	}

	if f.config.Mode == ModeProxy {
		data, err := f.blobs.Download(ctx, clean)
		if err != nil {
			return nil, err
		}
		contentType := mime.TypeByExtension(path.Ext(clean))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return &Resolution{Data: data, ContentType: contentType}, nil
	}

	url, err := f.blobs.SignedURL(ctx, clean, f.config.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	return &Resolution{RedirectURL: url}, nil
}

func (f *ResolverFunction) validate(objectPath string) (string, error) {
	p := strings.TrimPrefix(strings.TrimSpace(objectPath), "/")
	if p == "" {
		return "", ErrPathRequired
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%q: %w", objectPath, ErrPathForbidden)
		}
	}
	for _, prefix := range []string{f.config.Paths.ReportPrefix, f.config.Paths.PhotoPrefix} {
		prefix = strings.Trim(prefix, "/")
		if prefix == "" || strings.HasPrefix(p, prefix+"/") {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q: %w", objectPath, ErrPathForbidden)
}
