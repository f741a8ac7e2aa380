package frame

import (
	"context"
	"errors"
	"io"
)

// ChunkSource yields frames in chunks until io.EOF.
type ChunkSource interface {
	Next() (*Frame, error)
}

// ChunkSink consumes frames, typically writing them out.
type ChunkSink interface {
	Write(*Frame) error
	Close() error
}

// RunStream pulls chunks from src, applies the pipeline, and writes to sink.
// The sink is closed on every return path.
func RunStream(ctx context.Context, p *Pipeline, src ChunkSource, sink ChunkSink) (err error) {
	defer func() {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		out, err := p.Run(ctx, f)
		if err != nil {
			return err
		}
		if err := sink.Write(out); err != nil {
			return err
		}
	}
}

// Collector is a ChunkSink that concatenates every chunk into one frame.
type Collector struct {
	frame *Frame
	empty Schema
}

// NewCollector returns a collector whose result has schema s when no chunk
// arrives.
func NewCollector(s Schema) *Collector { return &Collector{empty: s} }

func (c *Collector) Write(f *Frame) error {
	if c.frame == nil {
		c.frame = NewFrame(f.Schema())
	}
	return c.frame.Concat(f)
}

func (c *Collector) Close() error { return nil }

// Frame returns the collected rows.
func (c *Collector) Frame() *Frame {
	if c.frame == nil {
		return NewFrame(c.empty)
	}
	return c.frame
}
