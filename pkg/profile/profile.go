package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wdm0006/sparkify/pkg/frame"
)

type NumStats struct {
	Count int     `json:"count"`
	Nulls int     `json:"nulls"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
}

type BoolStats struct {
	Count int `json:"count"`
	Nulls int `json:"nulls"`
	True  int `json:"true"`
	False int `json:"false"`
}

// StringStats also covers time columns; Min and Max are then RFC3339 text.
type StringStats struct {
	Count int            `json:"count"`
	Nulls int            `json:"nulls"`
	Min   string         `json:"min,omitempty"`
	Max   string         `json:"max,omitempty"`
	Freqs map[string]int `json:"-"`
}

type ColumnProfile struct {
	Name string       `json:"name"`
	Kind string       `json:"kind"`
	Num  *NumStats    `json:"num,omitempty"`
	Bool *BoolStats   `json:"bool,omitempty"`
	Str  *StringStats `json:"str,omitempty"`
	// Top holds the most frequent values when the collector tracks them.
	Top []Freq `json:"top,omitempty"`
}

type Freq struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Collector accumulates per-column statistics over one or more frames of
// the same schema.
type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
	rows  int
}

func NewCollector(schema frame.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type.String()}
		switch cs.Type {
		case frame.KindFloat, frame.KindInt:
			cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
		case frame.KindBool:
			cp.Bool = &BoolStats{}
		default:
			cp.Str = &StringStats{Freqs: make(map[string]int)}
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

// ConsumeFrame folds the rows of f into the profile. Columns the collector
// was not built for are ignored.
func (c *Collector) ConsumeFrame(f *frame.Frame) {
	c.rows += f.Rows()
	for i := 0; i < f.Cols(); i++ {
		idx, ok := c.index[f.Schema().Columns[i].Name]
		if !ok {
			continue
		}
		cp := &c.cols[idx]
		switch col := f.Column(i).(type) {
		case *frame.FloatColumn:
			for r := 0; r < col.Len(); r++ {
				v, ok := col.Get(r)
				cp.Num.add(v, ok)
			}
		case *frame.IntColumn:
			for r := 0; r < col.Len(); r++ {
				v, ok := col.Get(r)
				cp.Num.add(float64(v), ok)
			}
		case *frame.BoolColumn:
			for r := 0; r < col.Len(); r++ {
				v, ok := col.Get(r)
				switch {
				case !ok:
					cp.Bool.Nulls++
				case v:
					cp.Bool.Count++
					cp.Bool.True++
				default:
					cp.Bool.Count++
					cp.Bool.False++
				}
			}
		case *frame.StringColumn:
			for r := 0; r < col.Len(); r++ {
				v, ok := col.Get(r)
				c.addString(cp.Str, v, ok)
			}
		case *frame.TimeColumn:
			for r := 0; r < col.Len(); r++ {
				v, ok := col.Get(r)
				c.addString(cp.Str, v.Format("2006-01-02T15:04:05.000Z07:00"), ok)
			}
		}
	}
}

func (s *NumStats) add(v float64, ok bool) {
	if !ok {
		s.Nulls++
		return
	}
	s.Count++
	s.Sum += v
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
}

func (c *Collector) addString(s *StringStats, v string, ok bool) {
	if !ok {
		s.Nulls++
		return
	}
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	if c.topK > 0 {
		s.Freqs[v]++
	}
}

// Rows is the number of rows consumed so far.
func (c *Collector) Rows() int { return c.rows }

// Columns returns the profile of every column in schema order.
func (c *Collector) Columns() []ColumnProfile {
	out := make([]ColumnProfile, len(c.cols))
	for i, cp := range c.cols {
		if cp.Num != nil && cp.Num.Count == 0 {
			n := *cp.Num
			n.Min, n.Max = 0, 0
			cp.Num = &n
		}
		if cp.Str != nil && c.topK > 0 {
			cp.Top = topK(cp.Str.Freqs, c.topK)
		}
		out[i] = cp
	}
	return out
}

func topK(freqs map[string]int, k int) []Freq {
	arr := make([]Freq, 0, len(freqs))
	for v, n := range freqs {
		arr = append(arr, Freq{Value: v, Count: n})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].Count != arr[j].Count {
			return arr[i].Count > arr[j].Count
		}
		return arr[i].Value < arr[j].Value
	})
	if k < len(arr) {
		arr = arr[:k]
	}
	return arr
}

// ReportText renders the profile in the shape of a printed schema: one line
// per column with its kind and counts.
func (c *Collector) ReportText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "root (%d rows)\n", c.rows)
	for _, cp := range c.Columns() {
		fmt.Fprintf(&b, " |-- %s: %s ", cp.Name, cp.Kind)
		switch {
		case cp.Num != nil:
			mean := 0.0
			if cp.Num.Count > 0 {
				mean = cp.Num.Sum / float64(cp.Num.Count)
			}
			fmt.Fprintf(&b, "count=%d nulls=%d min=%.6g max=%.6g mean=%.6g\n", cp.Num.Count, cp.Num.Nulls, cp.Num.Min, cp.Num.Max, mean)
		case cp.Bool != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d true=%d false=%d\n", cp.Bool.Count, cp.Bool.Nulls, cp.Bool.True, cp.Bool.False)
		default:
			fmt.Fprintf(&b, "count=%d nulls=%d\n", cp.Str.Count, cp.Str.Nulls)
			for _, fq := range cp.Top {
				fmt.Fprintf(&b, " |    %q: %d\n", fq.Value, fq.Count)
			}
		}
	}
	return b.String()
}
