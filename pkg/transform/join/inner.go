package join

import (
	"context"
	"fmt"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// Inner joins the incoming frame with Right where the string column LeftOn
// equals Right's RightOn. Rows without a partner are dropped and null keys
// never match. The output carries the left columns followed by the right
// ones; a name present on both sides is an error.
type Inner struct {
	Right   *frame.Frame
	LeftOn  string
	RightOn string
}

func (t *Inner) Name() string { return "inner_join" }

func (t *Inner) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	if t.Right == nil {
		return nil, fmt.Errorf("no right-hand frame")
	}
	lk, err := stringColumn(f, t.LeftOn)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	rk, err := stringColumn(t.Right, t.RightOn)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	schema := frame.Schema{Columns: append([]frame.ColumnSchema(nil), f.Schema().Columns...)}
	for _, cs := range t.Right.Schema().Columns {
		if _, dup := f.ColumnByName(cs.Name); dup {
			return nil, fmt.Errorf("column %q exists on both sides", cs.Name)
		}
		schema.Columns = append(schema.Columns, cs)
	}

	index := make(map[string][]int, rk.Len())
	for r := 0; r < rk.Len(); r++ {
		if v, ok := rk.Get(r); ok {
			index[v] = append(index[v], r)
		}
	}

	out := frame.NewFrame(schema)
	for l := 0; l < lk.Len(); l++ {
		v, ok := lk.Get(l)
		if !ok {
			continue
		}
		for _, r := range index[v] {
			row := append(f.Row(l), t.Right.Row(r)...)
			if err := out.AppendRow(row...); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func stringColumn(f *frame.Frame, name string) (*frame.StringColumn, error) {
	c, err := f.MustColumn(name)
	if err != nil {
		return nil, err
	}
	sc, ok := c.(*frame.StringColumn)
	if !ok {
		return nil, fmt.Errorf("join key %s is %v, want string", name, c.Kind())
	}
	return sc, nil
}
