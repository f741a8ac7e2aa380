package validate

import (
	"context"
	"strings"
	"testing"

	"github.com/wdm0006/sparkify/pkg/frame"
)

func TestColumns(t *testing.T) {
	f := frame.NewFrame(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "page", Type: frame.KindString},
		{Name: "ts", Type: frame.KindInt},
		{Name: "extra", Type: frame.KindBool},
	}})
	ok := &Columns{Want: frame.Schema{Columns: []frame.ColumnSchema{{Name: "page", Type: frame.KindString}, {Name: "ts", Type: frame.KindInt}}}}
	if _, err := ok.Apply(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &Columns{Want: frame.Schema{Columns: []frame.ColumnSchema{{Name: "ts", Type: frame.KindString}, {Name: "song", Type: frame.KindString}}}}
	_, err := bad.Apply(context.Background(), f)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"ts is int, want string", "missing song"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}
