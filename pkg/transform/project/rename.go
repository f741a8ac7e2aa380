package project

import (
	"context"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// Rename changes a column's name. A missing column is left alone.
type Rename struct {
	Column string
	To     string
}

func (t *Rename) Name() string { return "rename" }

func (t *Rename) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	return f.Renamed(t.Column, t.To)
}

// Renames builds one Rename per pair, in order.
func Renames(pairs ...[2]string) []frame.Transform {
	out := make([]frame.Transform, len(pairs))
	for i, p := range pairs {
		out[i] = &Rename{Column: p[0], To: p[1]}
	}
	return out
}
