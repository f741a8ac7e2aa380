// Package etl builds the sparkify tables: the song-catalog stage writes
// songs and artists, the event-log stage writes users, time and songplays.
package etl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/io/csvio"
	"github.com/wdm0006/sparkify/pkg/io/parquetio"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/profile"
	"github.com/wdm0006/sparkify/pkg/session"
	"github.com/wdm0006/sparkify/pkg/tables"
)

const (
	DefaultSongGlob = "song_data/*/*/*/*.json"
	DefaultLogGlob  = "log_data/*/*/*.json"
)

type Options struct {
	SongGlob string
	LogGlob  string
	// Preview prints the first Preview rows of every table to PreviewOut
	// before it is written.
	Preview    int
	PreviewOut io.Writer
}

func (o Options) songGlob() string {
	if o.SongGlob == "" {
		return DefaultSongGlob
	}
	return o.SongGlob
}

func (o Options) logGlob() string {
	if o.LogGlob == "" {
		return DefaultLogGlob
	}
	return o.LogGlob
}

// TableReport is the outcome of one table write.
type TableReport struct {
	Table  string
	Result parquetio.Result
}

// SongsSource supplies the songs table to the event-log stage.
type SongsSource interface {
	Songs(ctx context.Context) (*frame.Frame, error)
}

// SongsFrame serves an in-memory songs table.
type SongsFrame struct{ Frame *frame.Frame }

func (s SongsFrame) Songs(ctx context.Context) (*frame.Frame, error) {
	if s.Frame == nil {
		return nil, fmt.Errorf("songs: %w", parquetio.ErrTableNotFound)
	}
	return s.Frame, nil
}

// TableSource reads the songs table committed under Output.
type TableSource struct {
	Session *session.Session
	Output  string
}

func (s TableSource) Songs(ctx context.Context) (*frame.Frame, error) {
	return s.Session.ReadParquet(ctx, s.Output, tables.Songs)
}

// ProcessSongData reads the song catalog under input and replaces the songs
// and artists tables under output.
func ProcessSongData(ctx context.Context, s *session.Session, input, output string, opt Options) ([]TableReport, error) {
	log := s.Logger().Named("songs")
	start := time.Now()
	log.Info("Processing song data", logger.String("input", input), logger.String("glob", opt.songGlob()))

	raw, err := s.ReadJSON(ctx, input, opt.songGlob(), tables.SongRecord, nil)
	if err != nil {
		return nil, fmt.Errorf("read song data: %w", err)
	}
	songs, err := SongsTable(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("songs table: %w", err)
	}
	artists, err := ArtistsTable(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("artists table: %w", err)
	}

	var reports []TableReport
	for _, tf := range []struct {
		t tables.Table
		f *frame.Frame
	}{{tables.Songs, songs}, {tables.Artists, artists}} {
		r, err := write(ctx, s, log, output, tf.t, tf.f, opt)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	log.Info("Song data processed", logger.Duration("elapsed", time.Since(start)))
	return reports, nil
}

// ProcessLogData reads the event log under input and replaces the users,
// time and songplays tables under output. Songplays are matched against
// the table served by songs; a missing songs table fails the stage.
func ProcessLogData(ctx context.Context, s *session.Session, input, output string, songs SongsSource, opt Options) ([]TableReport, error) {
	log := s.Logger().Named("events")
	start := time.Now()
	log.Info("Processing log data", logger.String("input", input), logger.String("glob", opt.logGlob()))

	view, err := s.ReadJSON(ctx, input, opt.logGlob(), tables.LogRecord, EventPipeline())
	if err != nil {
		return nil, fmt.Errorf("read log data: %w", err)
	}
	log.Debug("Song plays selected", logger.Int("rows", view.Rows()))

	var reports []TableReport
	users, err := UsersTable(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("users table: %w", err)
	}
	r, err := write(ctx, s, log, output, tables.Users, users, opt)
	if err != nil {
		return reports, err
	}
	reports = append(reports, r)

	tt, err := TimeTable(ctx, view)
	if err != nil {
		return reports, fmt.Errorf("time table: %w", err)
	}
	if r, err = write(ctx, s, log, output, tables.Time, tt, opt); err != nil {
		return reports, err
	}
	reports = append(reports, r)

	songsFrame, err := songs.Songs(ctx)
	if err != nil {
		return reports, fmt.Errorf("songplays: %w", err)
	}
	plays, err := SongplaysTable(ctx, view, songsFrame)
	if err != nil {
		return reports, fmt.Errorf("songplays table: %w", err)
	}
	if r, err = write(ctx, s, log, output, tables.Songplays, plays, opt); err != nil {
		return reports, err
	}
	reports = append(reports, r)

	log.Info("Log data processed", logger.Duration("elapsed", time.Since(start)))
	return reports, nil
}

// write checks f against the declared table layout, previews it and
// persists it.
func write(ctx context.Context, s *session.Session, log logger.Logger, output string, t tables.Table, f *frame.Frame, opt Options) (TableReport, error) {
	if err := conforms(f, t); err != nil {
		return TableReport{}, err
	}
	pc := profile.NewCollector(f.Schema(), 0)
	pc.ConsumeFrame(f)
	log.Debug("Table profile", logger.String("table", t.Name), logger.Any("columns", pc.Columns()))

	if opt.Preview > 0 && opt.PreviewOut != nil {
		if _, err := fmt.Fprintf(opt.PreviewOut, "== %s\n%s", t.Name, pc.ReportText()); err != nil {
			return TableReport{}, err
		}
		if err := csvio.WriteFrame(opt.PreviewOut, f, csvio.WriterOptions{Limit: opt.Preview, NullText: "null"}); err != nil {
			return TableReport{}, err
		}
	}

	res, err := s.WriteParquet(ctx, f, output, t)
	if err != nil {
		return TableReport{}, err
	}
	return TableReport{Table: t.Name, Result: res}, nil
}

// conforms requires f to carry exactly the table's columns, in order.
func conforms(f *frame.Frame, t tables.Table) error {
	got := f.Schema().Columns
	want := t.Schema.Columns
	if len(got) != len(want) {
		return fmt.Errorf("%s table has columns %v, want %v", t.Name, f.Schema().Names(), t.Schema.Names())
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Type != want[i].Type {
			return fmt.Errorf("%s table column %d is %s %v, want %s %v",
				t.Name, i, got[i].Name, got[i].Type, want[i].Name, want[i].Type)
		}
	}
	return nil
}
