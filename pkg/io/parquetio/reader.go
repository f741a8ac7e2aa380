package parquetio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	parquet "github.com/segmentio/parquet-go"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/storage"
)

// ErrTableNotFound is returned when a location holds no committed table.
var ErrTableNotFound = errors.New("table not found")

// ReadTable loads the committed dataset under loc into a frame shaped by
// schema. Partition columns are restored from key=value directories; schema
// columns found neither in the files nor in the path are null.
func ReadTable(ctx context.Context, store storage.Store, loc storage.Location, schema frame.Schema) (*frame.Frame, error) {
	ok, err := store.Exists(ctx, loc.Key(SuccessMarker))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, loc)
	}
	keys, err := store.List(ctx, loc.DirPrefix())
	if err != nil {
		return nil, err
	}
	out := frame.NewFrame(schema)
	for _, key := range keys {
		rel, ok := loc.Rel(key)
		if !ok || !isDataFile(rel) {
			continue
		}
		if err := readFile(ctx, store, key, path.Dir(rel), out); err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
	}
	return out, nil
}

// isDataFile skips markers and hidden files the way Spark does.
func isDataFile(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, "_") || strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return strings.HasSuffix(rel, ".parquet")
}

func readFile(ctx context.Context, store storage.Store, key, dir string, out *frame.Frame) error {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return err
	}
	b, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return err
	}

	schema := out.Schema()
	// fixed holds partition values; fileCol maps file leaf columns to the
	// frame column they fill, -1 when the frame does not want it.
	fixed := make([]any, len(schema.Columns))
	fromPath := make([]bool, len(schema.Columns))
	pvals := parsePartitionPath(dir)
	for i, cs := range schema.Columns {
		raw, ok := pvals[cs.Name]
		if !ok {
			continue
		}
		v, err := parsePartitionValue(raw, cs.Type)
		if err != nil {
			return fmt.Errorf("partition %s=%s: %w", cs.Name, raw, err)
		}
		fixed[i] = v
		fromPath[i] = true
	}
	leaves := pf.Schema().Columns()
	fileCol := make([]int, len(leaves))
	for li, p := range leaves {
		fileCol[li] = -1
		name := p[len(p)-1]
		for i, cs := range schema.Columns {
			if cs.Name == name && !fromPath[i] {
				fileCol[li] = i
			}
		}
	}

	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				vals := append([]any(nil), fixed...)
				for _, v := range row {
					ci := v.Column()
					if ci < 0 || ci >= len(fileCol) || fileCol[ci] < 0 || v.IsNull() {
						continue
					}
					fi := fileCol[ci]
					cv, err := convertValue(v, schema.Columns[fi].Type)
					if err != nil {
						_ = rows.Close()
						return fmt.Errorf("column %s: %w", schema.Columns[fi].Name, err)
					}
					vals[fi] = cv
				}
				if err := out.AppendRow(vals...); err != nil {
					_ = rows.Close()
					return err
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return err
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
	}
	return nil
}

func convertValue(v parquet.Value, k frame.Kind) (any, error) {
	switch k {
	case frame.KindString:
		if v.Kind() == parquet.ByteArray || v.Kind() == parquet.FixedLenByteArray {
			return string(v.ByteArray()), nil
		}
	case frame.KindInt:
		switch v.Kind() {
		case parquet.Int64:
			return v.Int64(), nil
		case parquet.Int32:
			return int64(v.Int32()), nil
		}
	case frame.KindFloat:
		switch v.Kind() {
		case parquet.Double:
			return v.Double(), nil
		case parquet.Float:
			return float64(v.Float()), nil
		case parquet.Int64:
			return float64(v.Int64()), nil
		case parquet.Int32:
			return float64(v.Int32()), nil
		}
	case frame.KindBool:
		if v.Kind() == parquet.Boolean {
			return v.Boolean(), nil
		}
	case frame.KindTime:
		if v.Kind() == parquet.Int64 {
			return time.UnixMilli(v.Int64()).UTC(), nil
		}
	}
	return nil, fmt.Errorf("cannot read %v value as %v", v.Kind(), k)
}
