package ioutils

import (
	"bufio"
	"compress/gzip"
	"io"
	"path"
)

// Decompress wraps an object stream with a gzip reader when the name ends in
// .gz or the stream starts with the gzip magic bytes. Closing the result
// closes rc.
func Decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	gz := path.Ext(name) == ".gz"
	if !gz {
		b, err := br.Peek(2)
		gz = err == nil && b[0] == 0x1f && b[1] == 0x8b
	}
	if !gz {
		return readCloser{Reader: br, closeFn: rc.Close}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return readCloser{Reader: zr, closeFn: func() error { _ = zr.Close(); return rc.Close() }}, nil
}

type readCloser struct {
	io.Reader
	closeFn func() error
}

func (r readCloser) Close() error { return r.closeFn() }
