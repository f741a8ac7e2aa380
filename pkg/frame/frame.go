package frame

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownColumn is returned when an operation names a column the frame
// does not carry.
var ErrUnknownColumn = errors.New("unknown column")

// Schema describes the logical shape of a dataset.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

// Lookup finds a column by name.
func (s Schema) Lookup(name string) (ColumnSchema, bool) {
	for _, cs := range s.Columns {
		if cs.Name == name {
			return cs, true
		}
	}
	return ColumnSchema{}, false
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	// Value returns the cell as a Go value, or nil when it is null.
	Value(i int) any
	// renamed returns a view of the same storage under another name.
	renamed(name string) Column
}

type BoolColumn struct {
	name  string
	data  []bool
	nulls []bool
}

func NewBoolColumn(name string, n int) *BoolColumn {
	return &BoolColumn{name: name, data: make([]bool, n), nulls: make([]bool, n)}
}
func (c *BoolColumn) Name() string           { return c.name }
func (c *BoolColumn) Kind() Kind             { return KindBool }
func (c *BoolColumn) Len() int               { return len(c.data) }
func (c *BoolColumn) IsNull(i int) bool      { return c.nulls[i] }
func (c *BoolColumn) SetNull(i int)          { c.nulls[i] = true }
func (c *BoolColumn) Get(i int) (bool, bool) { return c.data[i], !c.nulls[i] }
func (c *BoolColumn) Set(i int, v bool)      { c.data[i] = v; c.nulls[i] = false }
func (c *BoolColumn) AppendNull()            { c.data = append(c.data, false); c.nulls = append(c.nulls, true) }
func (c *BoolColumn) Append(v bool)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *BoolColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *BoolColumn) renamed(name string) Column {
	return &BoolColumn{name: name, data: c.data, nulls: c.nulls}
}

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *IntColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *IntColumn) renamed(name string) Column {
	return &IntColumn{name: name, data: c.data, nulls: c.nulls}
}

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}
func (c *FloatColumn) Name() string              { return c.name }
func (c *FloatColumn) Kind() Kind                { return KindFloat }
func (c *FloatColumn) Len() int                  { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool         { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)             { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Set(i int, v float64)      { c.data[i] = v; c.nulls[i] = false }
func (c *FloatColumn) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *FloatColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *FloatColumn) renamed(name string) Column {
	return &FloatColumn{name: name, data: c.data, nulls: c.nulls}
}

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *StringColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *StringColumn) renamed(name string) Column {
	return &StringColumn{name: name, data: c.data, nulls: c.nulls}
}

type TimeColumn struct {
	name  string
	data  []time.Time
	nulls []bool
}

func NewTimeColumn(name string, n int) *TimeColumn {
	return &TimeColumn{name: name, data: make([]time.Time, n), nulls: make([]bool, n)}
}
func (c *TimeColumn) Name() string                { return c.name }
func (c *TimeColumn) Kind() Kind                  { return KindTime }
func (c *TimeColumn) Len() int                    { return len(c.data) }
func (c *TimeColumn) IsNull(i int) bool           { return c.nulls[i] }
func (c *TimeColumn) SetNull(i int)               { c.nulls[i] = true }
func (c *TimeColumn) Get(i int) (time.Time, bool) { return c.data[i], !c.nulls[i] }
func (c *TimeColumn) Set(i int, v time.Time)      { c.data[i] = v; c.nulls[i] = false }
func (c *TimeColumn) AppendNull() {
	c.data = append(c.data, time.Time{})
	c.nulls = append(c.nulls, true)
}
func (c *TimeColumn) Append(v time.Time) {
	c.data = append(c.data, v)
	c.nulls = append(c.nulls, false)
}
func (c *TimeColumn) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.data[i]
}
func (c *TimeColumn) renamed(name string) Column {
	return &TimeColumn{name: name, data: c.data, nulls: c.nulls}
}

func newColumn(cs ColumnSchema) Column {
	switch cs.Type {
	case KindBool:
		return NewBoolColumn(cs.Name, 0)
	case KindInt:
		return NewIntColumn(cs.Name, 0)
	case KindFloat:
		return NewFloatColumn(cs.Name, 0)
	case KindString:
		return NewStringColumn(cs.Name, 0)
	case KindTime:
		return NewTimeColumn(cs.Name, 0)
	default:
		panic("invalid column kind")
	}
}

// Frame is a columnar container for tabular data.
type Frame struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

func NewFrame(s Schema) *Frame {
	f := &Frame{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		f.cols[i] = newColumn(cs)
		f.index[cs.Name] = i
	}
	return f
}

// FromColumns assembles a frame from existing columns of equal length. The
// columns are not copied.
func FromColumns(cols ...Column) (*Frame, error) {
	f := &Frame{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name())
		}
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name(), c.Len(), cols[0].Len())
		}
		f.index[c.Name()] = i
		f.schema.Columns = append(f.schema.Columns, ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: true})
	}
	if len(cols) > 0 {
		f.nrows = cols[0].Len()
	}
	return f, nil
}

func (f *Frame) Schema() Schema { return f.schema }
func (f *Frame) Rows() int      { return f.nrows }
func (f *Frame) Cols() int      { return len(f.cols) }

// Column returns the i-th column in schema order.
func (f *Frame) Column(i int) Column { return f.cols[i] }

func (f *Frame) ColumnByName(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// MustColumn is ColumnByName returning ErrUnknownColumn instead of a bool.
func (f *Frame) MustColumn(name string) (Column, error) {
	c, ok := f.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return c, nil
}

// AppendNullRow appends a row with all-null values.
func (f *Frame) AppendNullRow() {
	for _, c := range f.cols {
		switch col := c.(type) {
		case *BoolColumn:
			col.AppendNull()
		case *IntColumn:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		case *TimeColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	f.nrows++
}

// AppendRow appends one row given values in schema order. nil is null.
func (f *Frame) AppendRow(vals ...any) error {
	if len(vals) != len(f.cols) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(vals), len(f.cols))
	}
	f.AppendNullRow()
	row := f.nrows - 1
	for i, v := range vals {
		if err := f.SetCell(row, f.schema.Columns[i].Name, v); err != nil {
			return err
		}
	}
	return nil
}

// Row returns the values of row i in schema order, nil for nulls.
func (f *Frame) Row(i int) []any {
	out := make([]any, len(f.cols))
	for c, col := range f.cols {
		out[c] = col.Value(i)
	}
	return out
}

// Take builds a new frame holding the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := NewFrame(f.schema)
	for _, r := range rows {
		out.AppendNullRow()
		dst := out.nrows - 1
		for c, col := range f.cols {
			copyCell(out.cols[c], dst, col, r)
		}
	}
	return out
}

// Concat appends all rows of o, matching columns by name.
func (f *Frame) Concat(o *Frame) error {
	src := make([]Column, len(f.cols))
	for i, cs := range f.schema.Columns {
		c, ok := o.ColumnByName(cs.Name)
		if !ok {
			return fmt.Errorf("concat: %w: %s", ErrUnknownColumn, cs.Name)
		}
		if c.Kind() != cs.Type {
			return fmt.Errorf("concat: column %s is %v, want %v", cs.Name, c.Kind(), cs.Type)
		}
		src[i] = c
	}
	for r := 0; r < o.Rows(); r++ {
		f.AppendNullRow()
		dst := f.nrows - 1
		for c := range f.cols {
			copyCell(f.cols[c], dst, src[c], r)
		}
	}
	return nil
}

// WithColumn returns a frame sharing f's columns plus c appended at the end.
func (f *Frame) WithColumn(c Column) (*Frame, error) {
	if c.Len() != f.nrows {
		return nil, fmt.Errorf("column %q has %d rows, frame has %d", c.Name(), c.Len(), f.nrows)
	}
	cols := append(append([]Column(nil), f.cols...), c)
	return FromColumns(cols...)
}

// Renamed returns a frame sharing f's storage with column old called new.
// Renaming an absent column returns f unchanged.
func (f *Frame) Renamed(old, new string) (*Frame, error) {
	i, ok := f.index[old]
	if !ok {
		return f, nil
	}
	cols := append([]Column(nil), f.cols...)
	cols[i] = cols[i].renamed(new)
	return FromColumns(cols...)
}

func copyCell(dst Column, drow int, src Column, srow int) {
	if src.IsNull(srow) {
		return
	}
	switch d := dst.(type) {
	case *BoolColumn:
		v, _ := src.(*BoolColumn).Get(srow)
		d.Set(drow, v)
	case *IntColumn:
		v, _ := src.(*IntColumn).Get(srow)
		d.Set(drow, v)
	case *FloatColumn:
		v, _ := src.(*FloatColumn).Get(srow)
		d.Set(drow, v)
	case *StringColumn:
		v, _ := src.(*StringColumn).Get(srow)
		d.Set(drow, v)
	case *TimeColumn:
		v, _ := src.(*TimeColumn).Get(srow)
		d.Set(drow, v)
	}
}

// SetCell sets a single cell value by name (row must exist).
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	c := f.cols[i]
	switch col := c.(type) {
	case *BoolColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %s expects bool", name)
		}
		col.Set(row, b)
	case *IntColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch t := v.(type) {
		case int:
			col.Set(row, int64(t))
		case int32:
			col.Set(row, int64(t))
		case int64:
			col.Set(row, t)
		case float64:
			col.Set(row, int64(t))
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *FloatColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch t := v.(type) {
		case float32:
			col.Set(row, float64(t))
		case float64:
			col.Set(row, t)
		case int:
			col.Set(row, float64(t))
		case int64:
			col.Set(row, float64(t))
		default:
			return fmt.Errorf("column %s expects float64", name)
		}
	case *StringColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	case *TimeColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("column %s expects time.Time", name)
		}
		col.Set(row, t)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}
