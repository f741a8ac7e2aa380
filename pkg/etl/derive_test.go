package etl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/tables"
)

func record(t *testing.T, f *frame.Frame, fields map[string]any) {
	t.Helper()
	vals := make([]any, f.Cols())
	for i, cs := range f.Schema().Columns {
		vals[i] = fields[cs.Name]
	}
	require.NoError(t, f.AppendRow(vals...))
}

func column(t *testing.T, f *frame.Frame, name string) []any {
	t.Helper()
	c, err := f.MustColumn(name)
	require.NoError(t, err)
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

func songCatalog(t *testing.T) *frame.Frame {
	f := frame.NewFrame(tables.SongRecord)
	fixYou := map[string]any{
		"num_songs": int64(1), "artist_id": "A1", "artist_name": "Coldplay", "artist_location": "London",
		"artist_latitude": 51.5, "artist_longitude": -0.1,
		"song_id": "S1", "title": "Fix You", "duration": 221.2, "year": int64(2005),
	}
	record(t, f, fixYou)
	record(t, f, fixYou)
	record(t, f, map[string]any{
		"num_songs": int64(1), "artist_id": "A2", "artist_name": "Unknown",
		"song_id": "S2", "title": "Untitled", "duration": 100.0, "year": int64(0),
	})
	return f
}

// 2018-11-12T02:37:38.796Z, a Monday in ISO week 46.
const playedAt = int64(1541990258796)

func event(page, song string, ts int64, user string) map[string]any {
	return map[string]any{
		"page": page, "song": song, "ts": ts, "userId": user, "firstName": "Jane", "lastName": "Doe",
		"gender": "F", "level": "free", "sessionId": int64(5), "location": "NY", "userAgent": "UA",
		"artist": "Coldplay", "auth": "Logged In", "method": "PUT", "status": int64(200),
	}
}

func eventLog(t *testing.T) *frame.Frame {
	f := frame.NewFrame(tables.LogRecord)
	record(t, f, event("NextSong", "Fix You", playedAt, "10"))
	record(t, f, event("NextSong", "Fix You", playedAt, "10"))
	record(t, f, event("Home", "", playedAt+1000, "11"))
	record(t, f, event("NextSong", "Not In Catalog", playedAt+3600_000, "12"))
	return f
}

func TestSongsTable(t *testing.T) {
	songs, err := SongsTable(context.Background(), songCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, tables.Songs.Schema.Names(), songs.Schema().Names())
	assert.Equal(t, []any{"S1", "S2"}, column(t, songs, "song_id"))
	assert.Equal(t, []any{int64(2005), int64(0)}, column(t, songs, "year"))
}

func TestArtistsTable(t *testing.T) {
	artists, err := ArtistsTable(context.Background(), songCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, tables.Artists.Schema.Names(), artists.Schema().Names())
	require.Equal(t, 2, artists.Rows())
	assert.Equal(t, []any{"A2", "Unknown", nil, nil, nil}, artists.Row(1))
}

func TestSongPlayView(t *testing.T) {
	view, err := SongPlayView(context.Background(), eventLog(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"NextSong", "NextSong", "NextSong"}, column(t, view, "page"))
	ts := column(t, view, TimestampColumn)
	assert.Equal(t, time.Date(2018, 11, 12, 2, 37, 38, 796_000_000, time.UTC), ts[0])
}

func TestSongPlayViewNullTimestamp(t *testing.T) {
	f := frame.NewFrame(tables.LogRecord)
	record(t, f, map[string]any{"page": "NextSong", "song": "Fix You"})
	view, err := SongPlayView(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, column(t, view, TimestampColumn))
}

func TestUsersTable(t *testing.T) {
	view, err := SongPlayView(context.Background(), eventLog(t))
	require.NoError(t, err)
	users, err := UsersTable(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, tables.Users.Schema.Names(), users.Schema().Names())
	assert.Equal(t, []any{"10", "12"}, column(t, users, "user_id"))
	assert.NotContains(t, column(t, users, "user_id"), "11")
}

func TestTimeTable(t *testing.T) {
	view, err := SongPlayView(context.Background(), eventLog(t))
	require.NoError(t, err)
	tt, err := TimeTable(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, tables.Time.Schema.Names(), tt.Schema().Names())
	require.Equal(t, 2, tt.Rows())

	row := tt.Row(0)
	assert.Equal(t, time.UnixMilli(playedAt).UTC(), row[0])
	assert.Equal(t, []any{int64(2), int64(12), int64(46), int64(11), int64(2018), int64(0)}, row[1:])
	assert.Equal(t, int64(3), tt.Row(1)[1])
}

func TestSongplaysTable(t *testing.T) {
	ctx := context.Background()
	songs, err := SongsTable(ctx, songCatalog(t))
	require.NoError(t, err)
	view, err := SongPlayView(ctx, eventLog(t))
	require.NoError(t, err)

	plays, err := SongplaysTable(ctx, view, songs)
	require.NoError(t, err)
	assert.Equal(t, tables.Songplays.Schema.Names(), plays.Schema().Names())
	require.Equal(t, 1, plays.Rows())
	assert.Equal(t, []any{
		playedAt, "10", "free", "S1", "A1", int64(5), "NY", "UA", int64(2005), int64(11),
	}, plays.Row(0))
}

func TestSongplaysTableMatchesTitleOnly(t *testing.T) {
	ctx := context.Background()
	songs := frame.NewFrame(tables.Songs.Schema)
	require.NoError(t, songs.AppendRow("S1", "Fix You", "A1", int64(2005), 221.2))
	require.NoError(t, songs.AppendRow("S9", "Fix You", "A9", int64(2011), 180.0))
	view, err := SongPlayView(ctx, eventLog(t))
	require.NoError(t, err)

	plays, err := SongplaysTable(ctx, view, songs)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"S1", "S9"}, column(t, plays, "song_id"))
}

func TestSongplaysTableRejectsBadSongs(t *testing.T) {
	ctx := context.Background()
	view, err := SongPlayView(ctx, eventLog(t))
	require.NoError(t, err)
	bad := frame.NewFrame(frame.Schema{Columns: []frame.ColumnSchema{{Name: "title", Type: frame.KindString}}})
	_, err = SongplaysTable(ctx, view, bad)
	assert.ErrorContains(t, err, "missing song_id")
}
