// Package local stores objects as files on the local filesystem. Keys are
// absolute slash-separated paths.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wdm0006/sparkify/pkg/storage"
)

type Store struct{}

func New() *Store { return &Store{} }

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	root := filepath.FromSlash(prefix)
	// a prefix may end mid-name; walk from its directory
	if !strings.HasSuffix(prefix, "/") {
		root = filepath.Dir(root)
	}
	var keys []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		k := filepath.ToSlash(p)
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.FromSlash(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, key)
	}
	return f, err
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	p := filepath.FromSlash(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("put %s: %w", key, err)
	}
	return f.Close()
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	if strings.HasSuffix(prefix, "/") {
		return os.RemoveAll(filepath.FromSlash(strings.TrimSuffix(prefix, "/")))
	}
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := os.Remove(filepath.FromSlash(k)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.FromSlash(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
