package jsonio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// ErrMalformedRecord marks a record that is not a JSON object or whose
// declared fields carry values of the wrong JSON type.
var ErrMalformedRecord = errors.New("malformed record")

// Policy decides what happens to malformed records.
type Policy string

const (
	// PolicyFail aborts the read on the first malformed record.
	PolicyFail Policy = "fail"
	// PolicySkip drops malformed records and counts them.
	PolicySkip Policy = "skip"
)

// ParsePolicy accepts "", "fail" and "skip".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown malformed-record policy %q", s)
	}
}

type ReaderOptions struct {
	// Schema declares the fields to keep. Fields not listed are ignored and
	// listed fields missing from a record are null.
	Schema    frame.Schema
	Malformed Policy
}

// DecodeFrame reads a stream of JSON objects (one document, several
// concatenated, or one per line) into a frame. It returns the number of
// records dropped under PolicySkip.
//
// When the first non-blank line is a complete JSON value the stream is read
// line by line and a syntax error only costs its own line. Otherwise the
// stream is one multi-line document; a syntax error there leaves nothing to
// resynchronise on, so under PolicySkip the rest of the stream counts as one
// dropped record.
func DecodeFrame(r io.Reader, name string, opt ReaderOptions) (*frame.Frame, int, error) {
	br := bufio.NewReader(r)
	var head []byte
	for {
		line, err := br.ReadBytes('\n')
		head = append(head, line...)
		if len(bytes.TrimSpace(line)) > 0 {
			if json.Valid(line) {
				return decodeLines(br, head, name, opt)
			}
			break
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("read %s: %w", name, err)
		}
	}
	return decodeStream(io.MultiReader(bytes.NewReader(head), br), name, opt)
}

func decodeLines(br *bufio.Reader, head []byte, name string, opt ReaderOptions) (*frame.Frame, int, error) {
	d := &decoder{f: frame.NewFrame(opt.Schema), name: name, opt: opt}
	lines := bytes.SplitAfter(head, []byte("\n"))
	n := 0
	for {
		var line []byte
		var rerr error
		if len(lines) > 0 {
			line, lines = lines[0], lines[1:]
		} else {
			line, rerr = br.ReadBytes('\n')
			if rerr != nil && rerr != io.EOF {
				return nil, d.skipped, fmt.Errorf("read %s: %w", name, rerr)
			}
		}
		if len(line) > 0 {
			n++
			if err := d.decodeLine(line, n); err != nil {
				return nil, d.skipped, err
			}
		}
		if rerr == io.EOF {
			return d.f, d.skipped, nil
		}
	}
}

func decodeStream(r io.Reader, name string, opt ReaderOptions) (*frame.Frame, int, error) {
	d := &decoder{f: frame.NewFrame(opt.Schema), name: name, opt: opt}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	for i := 0; ; i++ {
		var v any
		if err := dec.Decode(&v); err != nil {
			if err == io.EOF {
				break
			}
			if isSyntax(err) {
				if opt.Malformed == PolicySkip {
					d.skipped++
					break
				}
				return nil, d.skipped, fmt.Errorf("%w: %s record %d: %v", ErrMalformedRecord, name, i, err)
			}
			return nil, d.skipped, fmt.Errorf("read %s: %w", name, err)
		}
		if err := d.add(v, fmt.Sprintf("record %d", i)); err != nil {
			return nil, d.skipped, err
		}
	}
	return d.f, d.skipped, nil
}

type decoder struct {
	f       *frame.Frame
	name    string
	opt     ReaderOptions
	skipped int
}

// decodeLine handles one input line, which may hold several concatenated
// values. A syntax error drops whatever of the line was not yet appended.
func (d *decoder) decodeLine(line []byte, n int) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if !isSyntax(err) {
				return fmt.Errorf("read %s: %w", d.name, err)
			}
			if d.opt.Malformed == PolicySkip {
				d.skipped++
				return nil
			}
			return fmt.Errorf("%w: %s line %d: %v", ErrMalformedRecord, d.name, n, err)
		}
		if err := d.add(v, fmt.Sprintf("line %d", n)); err != nil {
			return err
		}
	}
}

func (d *decoder) add(v any, at string) error {
	vals, err := recordValues(v, d.opt.Schema)
	if err != nil {
		if d.opt.Malformed == PolicySkip {
			d.skipped++
			return nil
		}
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedRecord, d.name, at, err)
	}
	return d.f.AppendRow(vals...)
}

func isSyntax(err error) bool {
	var se *json.SyntaxError
	return errors.As(err, &se) || errors.Is(err, io.ErrUnexpectedEOF)
}

func recordValues(v any, schema frame.Schema) ([]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("not a JSON object")
	}
	vals := make([]any, len(schema.Columns))
	for i, cs := range schema.Columns {
		raw, ok := m[cs.Name]
		if !ok || raw == nil {
			continue
		}
		val, err := coerce(raw, cs.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", cs.Name, err)
		}
		vals[i] = val
	}
	return vals, nil
}

func coerce(raw any, k frame.Kind) (any, error) {
	switch k {
	case frame.KindString:
		switch t := raw.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		case bool:
			return strconv.FormatBool(t), nil
		}
	case frame.KindInt:
		if n, ok := raw.(json.Number); ok {
			if x, err := n.Int64(); err == nil {
				return x, nil
			}
			if x, err := n.Float64(); err == nil && x == math.Trunc(x) && math.Abs(x) < 1<<63 {
				return int64(x), nil
			}
		}
	case frame.KindFloat:
		if n, ok := raw.(json.Number); ok {
			if x, err := n.Float64(); err == nil {
				return x, nil
			}
		}
	case frame.KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case frame.KindTime:
		if s, ok := raw.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return nil, fmt.Errorf("cannot use %T value as %v", raw, k)
}
