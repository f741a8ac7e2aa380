package local

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/sparkify/pkg/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	root := filepath.ToSlash(t.TempDir())
	s := New()

	for _, k := range []string{"songs.parquet/year=2005/a.parquet", "songs.parquet/_SUCCESS", "songs.parquet.bak/x", "users.parquet/b.parquet"} {
		require.NoError(t, s.Put(ctx, root+"/"+k, strings.NewReader(k), int64(len(k))))
	}

	keys, err := s.List(ctx, root+"/songs.parquet/")
	require.NoError(t, err)
	assert.Equal(t, []string{root + "/songs.parquet/_SUCCESS", root + "/songs.parquet/year=2005/a.parquet"}, keys)

	keys, err = s.List(ctx, root+"/songs.parquet")
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	keys, err = s.List(ctx, root+"/absent/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	rc, err := s.Open(ctx, root+"/users.parquet/b.parquet")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "users.parquet/b.parquet", string(b))

	_, err = s.Open(ctx, root+"/nope")
	assert.True(t, errors.Is(err, storage.ErrNotExist))

	require.NoError(t, s.DeletePrefix(ctx, root+"/songs.parquet/"))
	ok, err := s.Exists(ctx, root+"/songs.parquet/_SUCCESS")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Exists(ctx, root+"/songs.parquet.bak/x")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeletePrefix(ctx, root+"/users"))
	ok, err = s.Exists(ctx, root+"/users.parquet/b.parquet")
	require.NoError(t, err)
	assert.False(t, ok)
}
