// Package tables declares the record layouts the job reads and the five
// tables it writes.
package tables

import "github.com/wdm0006/sparkify/pkg/frame"

func col(name string, k frame.Kind) frame.ColumnSchema {
	return frame.ColumnSchema{Name: name, Type: k, Nullable: true}
}

// SongRecord is one song metadata document of the song catalog.
var SongRecord = frame.Schema{Columns: []frame.ColumnSchema{
	col("num_songs", frame.KindInt),
	col("artist_id", frame.KindString),
	col("artist_latitude", frame.KindFloat),
	col("artist_longitude", frame.KindFloat),
	col("artist_location", frame.KindString),
	col("artist_name", frame.KindString),
	col("song_id", frame.KindString),
	col("title", frame.KindString),
	col("duration", frame.KindFloat),
	col("year", frame.KindInt),
}}

// LogRecord is one user interaction of the event log.
var LogRecord = frame.Schema{Columns: []frame.ColumnSchema{
	col("artist", frame.KindString),
	col("auth", frame.KindString),
	col("firstName", frame.KindString),
	col("gender", frame.KindString),
	col("itemInSession", frame.KindInt),
	col("lastName", frame.KindString),
	col("length", frame.KindFloat),
	col("level", frame.KindString),
	col("location", frame.KindString),
	col("method", frame.KindString),
	col("page", frame.KindString),
	col("registration", frame.KindFloat),
	col("sessionId", frame.KindInt),
	col("song", frame.KindString),
	col("status", frame.KindInt),
	col("ts", frame.KindInt),
	col("userAgent", frame.KindString),
	col("userId", frame.KindString),
}}

// Table is an output table: its layout, directory name and partition keys.
type Table struct {
	Name        string
	Schema      frame.Schema
	PartitionBy []string
}

// Dir is the directory the table is written to under the output location.
func (t Table) Dir() string { return t.Name + ".parquet" }

var Songs = Table{
	Name: "songs",
	Schema: frame.Schema{Columns: []frame.ColumnSchema{
		col("song_id", frame.KindString),
		col("title", frame.KindString),
		col("artist_id", frame.KindString),
		col("year", frame.KindInt),
		col("duration", frame.KindFloat),
	}},
	PartitionBy: []string{"year", "artist_id"},
}

var Artists = Table{
	Name: "artists",
	Schema: frame.Schema{Columns: []frame.ColumnSchema{
		col("artist_id", frame.KindString),
		col("name", frame.KindString),
		col("location", frame.KindString),
		col("latitude", frame.KindFloat),
		col("longitude", frame.KindFloat),
	}},
}

var Users = Table{
	Name: "users",
	Schema: frame.Schema{Columns: []frame.ColumnSchema{
		col("user_id", frame.KindString),
		col("first_name", frame.KindString),
		col("last_name", frame.KindString),
		col("gender", frame.KindString),
		col("level", frame.KindString),
	}},
}

var Time = Table{
	Name: "time",
	Schema: frame.Schema{Columns: []frame.ColumnSchema{
		col("start_time", frame.KindTime),
		col("hour", frame.KindInt),
		col("day", frame.KindInt),
		col("week", frame.KindInt),
		col("month", frame.KindInt),
		col("year", frame.KindInt),
		col("weekday", frame.KindInt),
	}},
	PartitionBy: []string{"year", "month"},
}

var Songplays = Table{
	Name: "songplays",
	Schema: frame.Schema{Columns: []frame.ColumnSchema{
		col("ts", frame.KindInt),
		col("user_id", frame.KindString),
		col("level", frame.KindString),
		col("song_id", frame.KindString),
		col("artist_id", frame.KindString),
		col("session_id", frame.KindInt),
		col("location", frame.KindString),
		col("user_agent", frame.KindString),
		col("year", frame.KindInt),
		col("month", frame.KindInt),
	}},
	PartitionBy: []string{"year", "month"},
}

// All lists the output tables in the order the job writes them.
var All = []Table{Songs, Artists, Users, Time, Songplays}
