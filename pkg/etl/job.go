package etl

import (
	"context"
	"time"

	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/session"
)

// Job runs the stages against one input and one output location.
type Job struct {
	Session *session.Session
	Input   string
	Output  string
	Options Options
}

// Run executes the song-catalog stage and then the event-log stage, which
// reads back the songs table the first stage committed.
func (j *Job) Run(ctx context.Context) ([]TableReport, error) {
	start := time.Now()
	songs, err := j.RunSongs(ctx)
	if err != nil {
		return songs, err
	}
	events, err := j.RunEvents(ctx)
	reports := append(songs, events...)
	if err != nil {
		return reports, err
	}
	j.Session.Logger().Info("Job finished",
		logger.String("output", j.Output),
		logger.Int("tables", len(reports)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return reports, nil
}

func (j *Job) RunSongs(ctx context.Context) ([]TableReport, error) {
	return ProcessSongData(ctx, j.Session, j.Input, j.Output, j.Options)
}

// RunEvents runs only the event-log stage against the songs table already
// committed under Output.
func (j *Job) RunEvents(ctx context.Context) ([]TableReport, error) {
	src := TableSource{Session: j.Session, Output: j.Output}
	return ProcessLogData(ctx, j.Session, j.Input, j.Output, src, j.Options)
}
