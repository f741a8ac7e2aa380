package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionColumnsDeclared(t *testing.T) {
	for _, tb := range All {
		assert.Equal(t, tb.Name+".parquet", tb.Dir())
		for _, p := range tb.PartitionBy {
			_, ok := tb.Schema.Lookup(p)
			assert.True(t, ok, "%s: partition column %s not in schema", tb.Name, p)
		}
		seen := map[string]bool{}
		for _, n := range tb.Schema.Names() {
			assert.False(t, seen[n], "%s: duplicate column %s", tb.Name, n)
			seen[n] = true
		}
	}
}

func TestKeyColumns(t *testing.T) {
	keys := map[string]string{
		"songs":     "song_id",
		"artists":   "artist_id",
		"users":     "user_id",
		"time":      "start_time",
		"songplays": "ts",
	}
	for _, tb := range All {
		assert.Equal(t, keys[tb.Name], tb.Schema.Columns[0].Name, tb.Name)
	}
}
