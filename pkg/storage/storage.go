package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotExist is returned by Open for a key that is not stored.
var ErrNotExist = errors.New("object does not exist")

// Store is a flat key/value object store. Keys use "/" separators.
type Store interface {
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Open streams one object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Put stores size bytes read from r under key, replacing any object there.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)
}

// Scheme identifies the backend a Location lives in.
type Scheme string

const (
	SchemeFile Scheme = "file"
	SchemeS3   Scheme = "s3"
)

// Location is a parsed data location: a local directory or a bucket prefix.
// Prefix never starts with "/" for buckets and is absolute for files.
type Location struct {
	Scheme Scheme
	Bucket string
	Prefix string
}

// Parse understands plain paths, file:// URIs and s3://, s3a:// or s3n://
// bucket URIs.
func Parse(uri string) (Location, error) {
	if uri == "" {
		return Location{}, errors.New("empty location")
	}
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		abs, err := filepath.Abs(uri)
		if err != nil {
			return Location{}, err
		}
		return Location{Scheme: SchemeFile, Prefix: filepath.ToSlash(abs)}, nil
	}
	switch strings.ToLower(scheme) {
	case "file":
		if !strings.HasPrefix(rest, "/") {
			return Location{}, fmt.Errorf("file location %q is not absolute", uri)
		}
		return Location{Scheme: SchemeFile, Prefix: path.Clean(rest)}, nil
	case "s3", "s3a", "s3n":
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("location %q has no bucket", uri)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	default:
		return Location{}, fmt.Errorf("unsupported scheme %q in %q", scheme, uri)
	}
}

// Key joins elem under the location prefix.
func (l Location) Key(elem ...string) string {
	parts := make([]string, 0, len(elem)+1)
	if l.Prefix != "" {
		parts = append(parts, l.Prefix)
	}
	parts = append(parts, elem...)
	k := path.Join(parts...)
	if l.Scheme == SchemeFile && !strings.HasPrefix(k, "/") {
		k = "/" + k
	}
	return k
}

// Child returns the location of a sub-directory.
func (l Location) Child(elem ...string) Location {
	c := l
	c.Prefix = l.Key(elem...)
	return c
}

// DirPrefix is the listing prefix for everything inside the location.
func (l Location) DirPrefix() string {
	if l.Prefix == "" || strings.HasSuffix(l.Prefix, "/") {
		return l.Prefix
	}
	return l.Prefix + "/"
}

// Rel returns key relative to the location, or false when key lies outside.
func (l Location) Rel(key string) (string, bool) {
	p := l.DirPrefix()
	if !strings.HasPrefix(key, p) {
		return "", false
	}
	return strings.TrimPrefix(key, p), true
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Prefix
	}
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Prefix)
}

// Glob lists the keys under loc whose relative path matches pattern. The
// pattern follows path.Match, so "*" never crosses a "/" and the number of
// segments is fixed.
func Glob(ctx context.Context, s Store, loc Location, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	keys, err := s.List(ctx, loc.DirPrefix()+literalPrefix(pattern))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range keys {
		rel, ok := loc.Rel(k)
		if !ok {
			continue
		}
		if m, _ := path.Match(pattern, rel); m {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// literalPrefix is the part of pattern up to the last "/" before the first
// meta character; listing can be narrowed to it.
func literalPrefix(pattern string) string {
	i := strings.IndexAny(pattern, `*?[\`)
	if i < 0 {
		return pattern
	}
	j := strings.LastIndex(pattern[:i], "/")
	if j < 0 {
		return ""
	}
	return pattern[:j+1]
}
