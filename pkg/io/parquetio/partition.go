package parquetio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wdm0006/sparkify/pkg/frame"
)

// DefaultPartition is the directory value used for a null partition key.
const DefaultPartition = "__HIVE_DEFAULT_PARTITION__"

func needsEscape(c byte) bool {
	if c < 0x20 || c == 0x7f {
		return true
	}
	return strings.IndexByte("\"#%'*/:=?\\{[]^", c) >= 0
}

// escapePathName percent-encodes the characters Hive forbids in partition
// directory names.
func escapePathName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unescapePathName(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// partitionValue renders a cell as a partition directory value.
func partitionValue(c frame.Column, r int) string {
	if c.IsNull(r) {
		return DefaultPartition
	}
	var s string
	switch col := c.(type) {
	case *frame.StringColumn:
		s, _ = col.Get(r)
		if s == "" {
			return DefaultPartition
		}
	case *frame.IntColumn:
		v, _ := col.Get(r)
		s = strconv.FormatInt(v, 10)
	case *frame.FloatColumn:
		v, _ := col.Get(r)
		s = strconv.FormatFloat(v, 'g', -1, 64)
	case *frame.BoolColumn:
		v, _ := col.Get(r)
		s = strconv.FormatBool(v)
	case *frame.TimeColumn:
		v, _ := col.Get(r)
		s = v.UTC().Format(time.RFC3339Nano)
	}
	return escapePathName(s)
}

// parsePartitionValue turns a directory value back into a typed cell.
func parsePartitionValue(raw string, k frame.Kind) (any, error) {
	if raw == DefaultPartition {
		return nil, nil
	}
	s := unescapePathName(raw)
	switch k {
	case frame.KindString:
		return s, nil
	case frame.KindInt:
		return strconv.ParseInt(s, 10, 64)
	case frame.KindFloat:
		return strconv.ParseFloat(s, 64)
	case frame.KindBool:
		return strconv.ParseBool(s)
	case frame.KindTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	default:
		return nil, fmt.Errorf("unsupported partition kind %v", k)
	}
}

// parsePartitionPath reads "k=v" segments of a relative directory path.
func parsePartitionPath(dir string) map[string]string {
	out := map[string]string{}
	if dir == "" || dir == "." {
		return out
	}
	for _, seg := range strings.Split(dir, "/") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		out[unescapePathName(k)] = v
	}
	return out
}
