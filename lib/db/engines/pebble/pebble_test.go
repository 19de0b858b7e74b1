package pebble

import (
	"testing"

	"github.com/replkv/rkv/lib/db"
	"github.com/replkv/rkv/lib/db/dbtesting"
)

func Test(t *testing.T) {
	dbtesting.RunEngineTests(t, "Pebble", func(t *testing.T) db.Engine {
		e, err := Open(t.TempDir(), db.ColumnFamilies)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return e
	})
}
