package project

import (
	"context"
	"errors"
	"testing"

	"github.com/wdm0006/sparkify/pkg/frame"
)

func songs(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.NewFrame(frame.Schema{Columns: []frame.ColumnSchema{
		{Name: "song_id", Type: frame.KindString, Nullable: true},
		{Name: "artist_name", Type: frame.KindString, Nullable: true},
		{Name: "year", Type: frame.KindInt, Nullable: true},
	}})
	if err := f.AppendRow("S1", "Coldplay", int64(2005)); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSelect(t *testing.T) {
	out, err := (&Select{Columns: []string{"year", "song_id"}}).Apply(context.Background(), songs(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Schema().Names(); len(got) != 2 || got[0] != "year" || got[1] != "song_id" {
		t.Fatalf("columns = %v", got)
	}
	if out.Row(0)[0] != int64(2005) {
		t.Fatalf("row = %v", out.Row(0))
	}
}

func TestSelectErrors(t *testing.T) {
	if _, err := (&Select{Columns: []string{"title"}}).Apply(context.Background(), songs(t)); !errors.Is(err, frame.ErrUnknownColumn) {
		t.Fatalf("unknown column: %v", err)
	}
	if _, err := (&Select{}).Apply(context.Background(), songs(t)); err == nil {
		t.Fatal("expected error for empty selection")
	}
	if _, err := (&Select{Columns: []string{"year", "year"}}).Apply(context.Background(), songs(t)); err == nil {
		t.Fatal("expected error for duplicate selection")
	}
}

func TestRenames(t *testing.T) {
	p := frame.NewPipeline(Renames([2]string{"artist_name", "name"}, [2]string{"missing", "ignored"})...)
	out, err := p.Run(context.Background(), songs(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Schema().Names(); got[1] != "name" {
		t.Fatalf("columns = %v", got)
	}
	if _, ok := out.ColumnByName("ignored"); ok {
		t.Fatal("rename of an absent column created one")
	}
}
