package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agentstation/odflow/pkg/constants"
	"github.com/agentstation/odflow/pkg/errors"
)

// Local is a store backed by a directory on disk.
type Local struct {
	root string
}

var _ Store = (*Local)(nil)

// NewLocal returns a store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WrapIO("resolve", dir, err)
	}
	if err := os.MkdirAll(abs, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", abs, err)
	}
	return &Local{root: abs}, nil
}

// Root returns the directory backing the store.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Get implements Store.
func (l *Local) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path(key))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("object", l.URI(key))
	}
	if err != nil {
		return nil, errors.WrapIO("read", l.URI(key), err)
	}
	return data, nil
}

// Put implements Store. The object is written to a temporary file and
// renamed into place.
func (l *Local) Put(ctx context.Context, key string, r io.Reader) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dest := l.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(dest), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".put-*")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", l.URI(key), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("close", l.URI(key), err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("chmod", l.URI(key), err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("move", l.URI(key), err)
	}
	return nil
}

// List implements Store.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO("list", l.URI(prefix), err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Exists implements Store.
func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	info, err := os.Stat(l.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.WrapIO("stat", l.URI(key), err)
	}
	return !info.IsDir(), nil
}

// URI implements Store.
func (l *Local) URI(key string) string {
	return "file://" + filepath.ToSlash(l.path(key))
}

// Close implements Store.
func (l *Local) Close() error {
	return nil
}
