package ioutils

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecompress(t *testing.T) {
	tests := []struct {
		name string
		key  string
		body []byte
	}{
		{"plain", "a.json", []byte(`{"a":1}`)},
		{"gzip by extension", "a.json.gz", gzipped(t, `{"a":1}`)},
		{"gzip by magic", "a.json", gzipped(t, `{"a":1}`)},
		{"empty", "a.json", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := Decompress(tt.key, io.NopCloser(bytes.NewReader(tt.body)))
			require.NoError(t, err)
			defer func() { _ = rc.Close() }()
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			if len(tt.body) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, `{"a":1}`, string(got))
		})
	}
}
