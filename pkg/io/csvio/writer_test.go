package csvio

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/sparkify/pkg/frame"
)

func TestWriteFrame(t *testing.T) {
	f := frame.NewFrame(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "song_id", Type: frame.KindString, Nullable: true},
		{Name: "year", Type: frame.KindInt, Nullable: true},
		{Name: "duration", Type: frame.KindFloat, Nullable: true},
		{Name: "start_time", Type: frame.KindTime, Nullable: true},
	}})
	ts := time.UnixMilli(1541990258796).UTC()
	require.NoError(t, f.AppendRow("S1", int64(2005), 218.93179, ts))
	require.NoError(t, f.AppendRow("S2, live", nil, nil, nil))
	require.NoError(t, f.AppendRow("S3", int64(0), 1.0, nil))

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, f, WriterOptions{Limit: 2, NullText: "null"}))
	want := "song_id,year,duration,start_time\n" +
		"S1,2005,218.93179,2018-11-12T02:37:38.796Z\n" +
		"\"S2, live\",null,null,null\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteFrameDelimiter(t *testing.T) {
	f := frame.NewFrame(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "level", Type: frame.KindString, Nullable: true},
		{Name: "ok", Type: frame.KindBool, Nullable: true},
	}})
	require.NoError(t, f.AppendRow("free", true))

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, f, WriterOptions{Delimiter: '\t'}))
	assert.Equal(t, "level\tok\nfree\ttrue\n", buf.String())
}
