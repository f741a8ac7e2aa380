package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// Select keeps the named columns, in the given order. Unknown columns are an
// error.
type Select struct{ Columns []string }

func (t *Select) Name() string { return "select" }

func (t *Select) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	if len(t.Columns) == 0 {
		return nil, errors.New("no columns selected")
	}
	cols := make([]frame.Column, 0, len(t.Columns))
	for _, name := range t.Columns {
		c, err := f.MustColumn(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	out, err := frame.FromColumns(cols...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return out, nil
}
