package frame_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/wdm0006/sparkify/pkg/frame"
)

type sliceSource struct {
	chunks []*frame.Frame
	err    error
}

func (s *sliceSource) Next() (*frame.Frame, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	f := s.chunks[0]
	s.chunks = s.chunks[1:]
	return f, nil
}

type closeTracker struct {
	*frame.Collector
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return c.Collector.Close()
}

func TestRunStream(t *testing.T) {
	src := &sliceSource{chunks: []*frame.Frame{threeRows(t), threeRows(t)}}
	sink := &closeTracker{Collector: frame.NewCollector(eventSchema)}
	if err := frame.RunStream(context.Background(), frame.NewPipeline(dropFirst{}), src, sink); err != nil {
		t.Fatal(err)
	}
	if !sink.closed {
		t.Fatal("sink not closed")
	}
	if got := sink.Frame().Rows(); got != 4 {
		t.Fatalf("collected %d rows, want 4", got)
	}
}

func TestRunStreamSourceError(t *testing.T) {
	boom := errors.New("read failed")
	src := &sliceSource{chunks: []*frame.Frame{threeRows(t)}, err: boom}
	sink := &closeTracker{Collector: frame.NewCollector(eventSchema)}
	err := frame.RunStream(context.Background(), frame.NewPipeline(), src, sink)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if !sink.closed {
		t.Fatal("sink not closed after error")
	}
}

func TestCollectorEmpty(t *testing.T) {
	c := frame.NewCollector(eventSchema)
	f := c.Frame()
	if f.Rows() != 0 || f.Cols() != len(eventSchema.Columns) {
		t.Fatalf("empty collector frame is %dx%d", f.Rows(), f.Cols())
	}
}
