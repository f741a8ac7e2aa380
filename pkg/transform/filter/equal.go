package filter

import (
	"context"
	"fmt"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// Equal keeps rows whose string column equals Value. Null cells never match.
type Equal struct {
	Column string
	Value  string
}

func (t *Equal) Name() string { return "filter_equal" }

func (t *Equal) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	col, err := f.MustColumn(t.Column)
	if err != nil {
		return nil, err
	}
	sc, ok := col.(*frame.StringColumn)
	if !ok {
		return nil, fmt.Errorf("column %s is %v, want string", t.Column, col.Kind())
	}
	keep := make([]int, 0, sc.Len())
	for i := 0; i < sc.Len(); i++ {
		if v, ok := sc.Get(i); ok && v == t.Value {
			keep = append(keep, i)
		}
	}
	return f.Take(keep), nil
}
