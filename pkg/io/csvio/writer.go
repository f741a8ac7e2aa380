package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/wdm0006/sparkify/pkg/frame"
)

type WriterOptions struct {
	Delimiter rune // default ','
	// Limit caps the number of rows written; 0 writes every row.
	Limit int
	// NullText is written for null cells.
	NullText string
}

// WriteFrame writes a header and the rows of f as CSV.
func WriteFrame(out io.Writer, f *frame.Frame, opt WriterOptions) error {
	w := csv.NewWriter(out)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}

	hdr := f.Schema().Names()
	if err := w.Write(hdr); err != nil {
		return err
	}

	n := f.Rows()
	if opt.Limit > 0 && opt.Limit < n {
		n = opt.Limit
	}
	row := make([]string, len(hdr))
	for r := 0; r < n; r++ {
		for c := range hdr {
			row[c] = formatCell(f.Column(c), r, opt.NullText)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatCell(col frame.Column, r int, null string) string {
	switch c := col.(type) {
	case *frame.FloatColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case *frame.IntColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatInt(v, 10)
		}
	case *frame.BoolColumn:
		if v, ok := c.Get(r); ok {
			return strconv.FormatBool(v)
		}
	case *frame.StringColumn:
		if v, ok := c.Get(r); ok {
			return v
		}
	case *frame.TimeColumn:
		if v, ok := c.Get(r); ok {
			return v.Format(time.RFC3339Nano)
		}
	}
	return null
}
