package dedup

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// Distinct drops rows that repeat an earlier row. With Columns empty every
// column takes part in the comparison. The first occurrence wins and nulls
// compare equal to each other.
type Distinct struct{ Columns []string }

func (t *Distinct) Name() string { return "distinct" }

func (t *Distinct) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	cols := make([]frame.Column, 0, f.Cols())
	if len(t.Columns) == 0 {
		for i := 0; i < f.Cols(); i++ {
			cols = append(cols, f.Column(i))
		}
	} else {
		for _, name := range t.Columns {
			c, err := f.MustColumn(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
	}
	seen := make(map[string]struct{}, f.Rows())
	keep := make([]int, 0, f.Rows())
	var b strings.Builder
	for r := 0; r < f.Rows(); r++ {
		b.Reset()
		for _, c := range cols {
			writeKey(&b, c, r)
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}
	if len(keep) == f.Rows() {
		return f, nil
	}
	return f.Take(keep), nil
}

// writeKey encodes one cell so that distinct values never share an encoding.
func writeKey(b *strings.Builder, c frame.Column, r int) {
	if c.IsNull(r) {
		b.WriteString("N;")
		return
	}
	switch col := c.(type) {
	case *frame.BoolColumn:
		v, _ := col.Get(r)
		b.WriteString(strconv.FormatBool(v))
	case *frame.IntColumn:
		v, _ := col.Get(r)
		b.WriteString(strconv.FormatInt(v, 10))
	case *frame.FloatColumn:
		v, _ := col.Get(r)
		b.WriteString(strconv.FormatUint(floatKey(v), 16))
	case *frame.StringColumn:
		v, _ := col.Get(r)
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	case *frame.TimeColumn:
		v, _ := col.Get(r)
		b.WriteString(strconv.FormatInt(v.UnixNano(), 10))
	}
	b.WriteByte(';')
}

// floatKey folds -0 into 0 and every NaN into one value, so they compare
// equal the way Spark's dropDuplicates does.
func floatKey(v float64) uint64 {
	switch {
	case math.IsNaN(v):
		return math.Float64bits(math.NaN())
	case v == 0:
		return 0
	}
	return math.Float64bits(v)
}
