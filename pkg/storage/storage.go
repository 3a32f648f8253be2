// Package storage provides the object stores pipeline steps read from and
// write to. A store is opened from a URI: gs://bucket/prefix selects Google
// Cloud Storage and file:///dir or a plain path selects a local directory.
// Keys are slash-separated and relative to the store root.
package storage

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/agentstation/odflow/pkg/errors"
)

// Store is a flat key/value object store.
type Store interface {
	// Get returns the object contents. A missing key yields a NotFoundError.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the object, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader) error

	// List returns the keys under prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// URI returns a display location for key.
	URI(key string) string

	// Close releases the store's clients.
	Close() error
}

// Scheme identifies a store backend.
type Scheme string

const (
	// SchemeGCS is Google Cloud Storage.
	SchemeGCS Scheme = "gs"
	// SchemeFile is a local directory.
	SchemeFile Scheme = "file"
)

// Location is a parsed store URI.
type Location struct {
	Scheme Scheme
	Bucket string
	Prefix string
	Path   string
}

// ParseURI parses a store URI. Schemes other than gs and file are rejected.
func ParseURI(uri string) (Location, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Location{}, errors.NewConfigError("storage", "empty store URI", nil)
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Path: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, errors.NewConfigError("storage", "invalid store URI "+uri, err)
	}
	switch Scheme(u.Scheme) {
	case SchemeGCS:
		if u.Host == "" {
			return Location{}, errors.NewConfigError("storage", "missing bucket in "+uri, nil)
		}
		return Location{Scheme: SchemeGCS, Bucket: u.Host, Prefix: cleanPrefix(u.Path)}, nil
	case SchemeFile:
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			p = u.Host + p
		}
		if p == "" {
			return Location{}, errors.NewConfigError("storage", "missing path in "+uri, nil)
		}
		return Location{Scheme: SchemeFile, Path: p}, nil
	default:
		return Location{}, errors.NewConfigError("storage", "unsupported store scheme "+u.Scheme, nil)
	}
}

// Open opens the store named by uri.
func Open(ctx context.Context, uri string, opts ...Option) (Store, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case SchemeGCS:
		return NewGCS(ctx, loc.Bucket, loc.Prefix, options)
	default:
		return NewLocal(loc.Path)
	}
}

// cleanPrefix normalizes a key prefix to "a/b/" form, or "" for the root.
func cleanPrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p) + "/"
}

// validKey rejects empty keys and keys escaping the store root.
func validKey(key string) error {
	if key == "" || strings.HasSuffix(key, "/") {
		return errors.NewValidationError("key", key, "must name an object")
	}
	if path.Clean(key) != key || strings.HasPrefix(key, "/") || strings.HasPrefix(key, "../") {
		return errors.NewValidationError("key", key, "must be a clean relative path")
	}
	return nil
}

// Join builds a key from slash-separated parts.
func Join(parts ...string) string {
	return strings.TrimPrefix(path.Join(parts...), "/")
}

// Base returns the last element of key.
func Base(key string) string {
	return path.Base(key)
}
