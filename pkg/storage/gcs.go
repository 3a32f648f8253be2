package storage

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
)

// GCS is a store backed by a Google Cloud Storage bucket prefix.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ Store = (*GCS)(nil)

// NewGCS connects to bucket. Keys are resolved under prefix.
func NewGCS(ctx context.Context, bucket, prefix string, opts *options) (*GCS, error) {
	if opts == nil {
		opts = defaultOptions()
	}
	clientOpts := append(opts.clientOptions(), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.NewConfigError("storage", "failed to create GCS client", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: cleanPrefix(prefix)}, nil
}

func (g *GCS) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(g.prefix + key)
}

// Get implements Store.
func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, constants.StorageReadTimeout)
	defer cancel()

	r, err := g.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errors.NewNotFoundError("object", g.URI(key))
	}
	if err != nil {
		return nil, errors.WrapIO("open", g.URI(key), err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", g.URI(key), err)
	}
	return data, nil
}

// Put implements Store.
func (g *GCS) Put(ctx context.Context, key string, r io.Reader) error {
	if err := validKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, constants.StorageWriteTimeout)
	defer cancel()

	w := g.object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.WrapIO("write", g.URI(key), err)
	}
	if err := w.Close(); err != nil {
		return errors.WrapIO("close", g.URI(key), err)
	}
	return nil
}

// List implements Store.
func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StorageListTimeout)
	defer cancel()

	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix + prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.WrapIO("list", g.URI(prefix), err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, g.prefix))
	}
	return keys, nil
}

// Exists implements Store.
func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, constants.StorageListTimeout)
	defer cancel()

	_, err := g.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.WrapIO("stat", g.URI(key), err)
	}
	return true, nil
}

// URI implements Store.
func (g *GCS) URI(key string) string {
	return "gs://" + g.bucket + "/" + g.prefix + key
}

// Close implements Store.
func (g *GCS) Close() error {
	return g.client.Close()
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".csv"):
		return "text/csv"
	case strings.HasSuffix(key, ".parquet"):
		return "application/vnd.apache.parquet"
	case strings.HasSuffix(key, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(key, ".zip"):
		return "application/zip"
	default:
		return ""
	}
}
