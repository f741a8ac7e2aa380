package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/sparkify/pkg/credentials"
	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/io/jsonio"
	"github.com/wdm0006/sparkify/pkg/io/parquetio"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/storage"
	"github.com/wdm0006/sparkify/pkg/tables"
	"github.com/wdm0006/sparkify/pkg/transform/filter"
)

func writeJSON(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestReadJSON(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeJSON(t, root, "log_data/2018/11/a.json",
		`{"page":"NextSong","userId":"1","ts":1}`+"\n"+`{"page":"Home","userId":"2","ts":2}`+"\n")
	writeJSON(t, root, "log_data/2018/11/b.json", `{"page":"NextSong","userId":"3","ts":3}`)
	writeJSON(t, root, "log_data/2018/c.json", `{"page":"NextSong","userId":"4","ts":4}`)

	log := logger.NewTestLogger()
	s, err := New(ctx, WithLogger(log))
	require.NoError(t, err)

	p := frame.NewPipeline(&filter.Equal{Column: "page", Value: "NextSong"})
	f, err := s.ReadJSON(ctx, root, "log_data/*/*/*.json", tables.LogRecord, p)
	require.NoError(t, err)
	require.Equal(t, 2, f.Rows())
	ids, _ := f.ColumnByName("userId")
	assert.Equal(t, "1", ids.Value(0))
	assert.Equal(t, "3", ids.Value(1))
	assert.Equal(t, 2, log.Count("INFO"))
}

func TestReadJSONNoInput(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx)
	require.NoError(t, err)
	_, err = s.ReadJSON(ctx, t.TempDir(), "song_data/*/*/*/*.json", tables.SongRecord, nil)
	require.ErrorIs(t, err, ErrNoInput)
}

func TestReadJSONMalformed(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeJSON(t, root, "songs/a.json", `{"song_id":"S1","year":"nineteen"}`+"\n"+`{"song_id":"S2","year":1999}`)

	s, err := New(ctx)
	require.NoError(t, err)
	_, err = s.ReadJSON(ctx, root, "songs/*.json", tables.SongRecord, nil)
	require.ErrorIs(t, err, jsonio.ErrMalformedRecord)

	log := logger.NewTestLogger()
	s, err = New(ctx, WithMalformed(jsonio.PolicySkip), WithLogger(log))
	require.NoError(t, err)
	f, err := s.ReadJSON(ctx, root, "songs/*.json", tables.SongRecord, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Rows())
	assert.Equal(t, 1, log.Count("WARN"))
}

func TestWriteReadParquet(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	s, err := New(ctx, WithStagingDir(t.TempDir()))
	require.NoError(t, err)

	f := frame.NewFrame(tables.Songs.Schema)
	require.NoError(t, f.AppendRow("S1", "Fix You", "A1", int64(2005), 221.2))
	require.NoError(t, f.AppendRow("S2", "Yellow", "A1", int64(2000), 266.0))

	res, err := s.WriteParquet(ctx, f, out, tables.Songs)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.FileExists(t, filepath.Join(out, "songs.parquet", parquetio.SuccessMarker))
	assert.DirExists(t, filepath.Join(out, "songs.parquet", "year=2005", "artist_id=A1"))

	back, err := s.ReadParquet(ctx, "file://"+filepath.ToSlash(out), tables.Songs)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Rows())

	_, err = s.ReadParquet(ctx, out, tables.Users)
	require.ErrorIs(t, err, parquetio.ErrTableNotFound)
}

type fakeStore struct{ storage.Store }

func TestStoreCache(t *testing.T) {
	ctx := context.Background()
	fake := &fakeStore{}
	s, err := New(ctx, WithStore(storage.SchemeS3, "udacity-dend", fake))
	require.NoError(t, err)

	loc, err := storage.Parse("s3a://udacity-dend/song_data")
	require.NoError(t, err)
	st, err := s.Store(ctx, loc)
	require.NoError(t, err)
	assert.Same(t, fake, st)

	a, err := s.Store(ctx, storage.Location{Scheme: storage.SchemeFile, Prefix: "/a"})
	require.NoError(t, err)
	b, err := s.Store(ctx, storage.Location{Scheme: storage.SchemeFile, Prefix: "/b"})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(context.Background(), WithMalformed("quarantine"))
	assert.Error(t, err)
	_, err = New(context.Background(), WithStorage(StorageOptions{Driver: "gcs"}))
	assert.Error(t, err)
}

func TestCredentialRegionWins(t *testing.T) {
	s, err := New(context.Background(),
		WithStorage(StorageOptions{Driver: DriverS3, Region: "us-east-1"}),
		WithCredentials(credentials.AWS{AccessKeyID: "id", SecretAccessKey: "secret", Region: "eu-west-1"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", s.opts.Storage.Region)
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	a, err := GetOrCreate(ctx)
	require.NoError(t, err)
	b, err := GetOrCreate(ctx, WithMalformed(jsonio.PolicySkip))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, jsonio.PolicyFail, b.opts.Malformed)
}
