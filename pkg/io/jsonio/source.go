package jsonio

import (
	"context"
	"io"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/io/ioutils"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/storage"
)

// Source is a frame.ChunkSource yielding one frame per stored JSON object.
type Source struct {
	ctx     context.Context
	store   storage.Store
	keys    []string
	next    int
	opt     ReaderOptions
	log     logger.Logger
	skipped int
}

func NewSource(ctx context.Context, store storage.Store, keys []string, opt ReaderOptions, log logger.Logger) *Source {
	return &Source{ctx: ctx, store: store, keys: keys, opt: opt, log: log}
}

func (s *Source) Schema() frame.Schema { return s.opt.Schema }

// Skipped is the number of malformed records dropped so far.
func (s *Source) Skipped() int { return s.skipped }

func (s *Source) Next() (*frame.Frame, error) {
	if s.next >= len(s.keys) {
		return nil, io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	key := s.keys[s.next]
	s.next++
	rc, err := s.store.Open(s.ctx, key)
	if err != nil {
		return nil, err
	}
	body, err := ioutils.Decompress(key, rc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	f, skipped, err := DecodeFrame(body, key, s.opt)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.skipped += skipped
		s.log.Warn("Dropped malformed records",
			logger.String("file", key),
			logger.Int("count", skipped),
		)
	}
	return f, nil
}
