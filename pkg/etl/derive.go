package etl

import (
	"context"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/tables"
	"github.com/wdm0006/sparkify/pkg/transform/calendar"
	"github.com/wdm0006/sparkify/pkg/transform/dedup"
	"github.com/wdm0006/sparkify/pkg/transform/filter"
	"github.com/wdm0006/sparkify/pkg/transform/join"
	"github.com/wdm0006/sparkify/pkg/transform/project"
	"github.com/wdm0006/sparkify/pkg/transform/validate"
)

const (
	// SongPlayPage is the page value of an event that played a song.
	SongPlayPage = "NextSong"
	// TimestampColumn is added to every event from its ts field.
	TimestampColumn = "timestamp"
)

// calendarFields are the time table columns after start_time.
var calendarFields = []calendar.Field{
	{Part: calendar.Hour, As: "hour"},
	{Part: calendar.Day, As: "day"},
	{Part: calendar.Week, As: "week"},
	{Part: calendar.Month, As: "month"},
	{Part: calendar.Year, As: "year"},
	{Part: calendar.Weekday, As: "weekday"},
}

func pipeline(steps ...frame.Transform) *frame.Pipeline {
	return frame.NewPipeline(steps...)
}

// SongsTable projects the song catalog onto the songs table.
func SongsTable(ctx context.Context, raw *frame.Frame) (*frame.Frame, error) {
	return pipeline(
		&project.Select{Columns: tables.Songs.Schema.Names()},
		&dedup.Distinct{},
	).Run(ctx, raw)
}

// ArtistsTable projects the song catalog onto the artists table.
func ArtistsTable(ctx context.Context, raw *frame.Frame) (*frame.Frame, error) {
	p := pipeline(&project.Select{Columns: []string{
		"artist_id", "artist_name", "artist_location", "artist_latitude", "artist_longitude",
	}})
	for _, t := range project.Renames(
		[2]string{"artist_name", "name"},
		[2]string{"artist_location", "location"},
		[2]string{"artist_latitude", "latitude"},
		[2]string{"artist_longitude", "longitude"},
	) {
		p.Add(t)
	}
	return p.Add(&dedup.Distinct{}).Run(ctx, raw)
}

// EventPipeline turns raw log records into song-play events: only NextSong
// rows, each with a UTC timestamp derived from ts. It runs per input file.
func EventPipeline() *frame.Pipeline {
	return pipeline(
		&validate.Columns{Want: frame.Schema{Columns: []frame.ColumnSchema{
			{Name: "page", Type: frame.KindString},
			{Name: "ts", Type: frame.KindInt},
		}}},
		&filter.Equal{Column: "page", Value: SongPlayPage},
		&calendar.FromEpochMillis{Column: "ts", As: TimestampColumn},
	)
}

// SongPlayView applies EventPipeline to an already loaded event frame.
func SongPlayView(ctx context.Context, raw *frame.Frame) (*frame.Frame, error) {
	return EventPipeline().Run(ctx, raw)
}

// UsersTable derives the users table from the song-play view.
func UsersTable(ctx context.Context, view *frame.Frame) (*frame.Frame, error) {
	p := pipeline(&project.Select{Columns: []string{"userId", "firstName", "lastName", "gender", "level"}})
	for _, t := range project.Renames(
		[2]string{"userId", "user_id"},
		[2]string{"firstName", "first_name"},
		[2]string{"lastName", "last_name"},
	) {
		p.Add(t)
	}
	return p.Add(&dedup.Distinct{}).Run(ctx, view)
}

// TimeTable expands every distinct event timestamp into calendar fields.
func TimeTable(ctx context.Context, view *frame.Frame) (*frame.Frame, error) {
	return pipeline(
		&project.Select{Columns: []string{TimestampColumn}},
		&dedup.Distinct{},
		&project.Rename{Column: TimestampColumn, To: "start_time"},
		&calendar.Extract{Column: "start_time", Fields: calendarFields},
	).Run(ctx, view)
}

// songKeys are the songs table columns songplays needs.
var songKeys = frame.Schema{Columns: []frame.ColumnSchema{
	{Name: "song_id", Type: frame.KindString},
	{Name: "title", Type: frame.KindString},
	{Name: "artist_id", Type: frame.KindString},
	{Name: "year", Type: frame.KindInt},
}}

// SongplaysTable joins song-play events to songs by title. Events without
// a song of the same title are dropped. year is the song's release year and
// month the month of the event.
func SongplaysTable(ctx context.Context, view, songs *frame.Frame) (*frame.Frame, error) {
	right, err := pipeline(
		&validate.Columns{Want: songKeys},
		&project.Select{Columns: songKeys.Names()},
	).Run(ctx, songs)
	if err != nil {
		return nil, err
	}
	p := pipeline(
		&join.Inner{Right: right, LeftOn: "song", RightOn: "title"},
		&calendar.Extract{Column: TimestampColumn, Fields: []calendar.Field{{Part: calendar.Month, As: "month"}}},
		&project.Select{Columns: []string{
			"ts", "userId", "level", "song_id", "artist_id", "sessionId", "location", "userAgent", "year", "month",
		}},
	)
	for _, t := range project.Renames(
		[2]string{"userId", "user_id"},
		[2]string{"sessionId", "session_id"},
		[2]string{"userAgent", "user_agent"},
	) {
		p.Add(t)
	}
	return p.Add(&dedup.Distinct{}).Run(ctx, view)
}
