// Package dbtesting holds a conformance suite that every db.Engine
// implementation runs from its own package tests.
package dbtesting

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/replkv/rkv/lib/db"
)

// EngineFactory creates a fresh, empty engine for one subtest.
type EngineFactory func(t *testing.T) db.Engine

// RunEngineTests exercises the full db.Engine contract.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("GetPut", func(t *testing.T) { testGetPut(t, factory(t)) })
		t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
		t.Run("FamilyIsolation", func(t *testing.T) { testFamilyIsolation(t, factory(t)) })
		t.Run("Batch", func(t *testing.T) { testBatch(t, factory(t)) })
		t.Run("IteratorOrder", func(t *testing.T) { testIteratorOrder(t, factory(t)) })
		t.Run("IteratorPrefix", func(t *testing.T) { testIteratorPrefix(t, factory(t)) })
	})
}

func put(t *testing.T, e db.Engine, cf, key, val string) {
	t.Helper()
	if err := e.Put(cf, key, []byte(val)); err != nil {
		t.Fatalf("Put(%s, %s): %v", cf, key, err)
	}
}

func testGetPut(t *testing.T, e db.Engine) {
	defer e.Close()

	if _, err := e.Get(db.CFAccount, "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	put(t, e, db.CFAccount, "a:1", "value-1")
	got, err := e.Get(db.CFAccount, "a:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("value-1")) {
		t.Fatalf("Get = %q, want %q", got, "value-1")
	}
}

func testOverwrite(t *testing.T, e db.Engine) {
	defer e.Close()

	put(t, e, db.CFPost, "p:1", "old")
	put(t, e, db.CFPost, "p:1", "new")

	got, err := e.Get(db.CFPost, "p:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("Get = %q, want %q", got, "new")
	}
}

func testFamilyIsolation(t *testing.T, e db.Engine) {
	defer e.Close()

	put(t, e, db.CFAccount, "k", "from-account")
	put(t, e, db.CFPost, "k", "from-post")

	got, err := e.Get(db.CFAccount, "k")
	if err != nil || string(got) != "from-account" {
		t.Fatalf("account Get = %q, %v", got, err)
	}
	got, err = e.Get(db.CFPost, "k")
	if err != nil || string(got) != "from-post" {
		t.Fatalf("post Get = %q, %v", got, err)
	}
	if _, err := e.Get(db.CFDefault, "k"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("default Get = %v, want ErrNotFound", err)
	}
}

func testBatch(t *testing.T, e db.Engine) {
	defer e.Close()

	put(t, e, db.CFPost, "stale", "x")

	var b db.Batch
	b.Put(db.CFPost, "p:1", []byte("primary"))
	b.Put(db.CFPost, "t:1", []byte("index"))
	b.Put(db.CFAccount, "a:1", []byte("acct"))
	b.Delete(db.CFPost, "stale")
	if err := e.Write(&b); err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, c := range []struct{ cf, key, want string }{
		{db.CFPost, "p:1", "primary"},
		{db.CFPost, "t:1", "index"},
		{db.CFAccount, "a:1", "acct"},
	} {
		got, err := e.Get(c.cf, c.key)
		if err != nil || string(got) != c.want {
			t.Fatalf("Get(%s, %s) = %q, %v, want %q", c.cf, c.key, got, err, c.want)
		}
	}
	if _, err := e.Get(db.CFPost, "stale"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("deleted key Get = %v, want ErrNotFound", err)
	}
}

func testIteratorOrder(t *testing.T, e db.Engine) {
	defer e.Close()

	// inserted out of order, iterated in ascending lexical order
	for _, k := range []string{"t:3", "t:1", "t:2", "p:9", "p:1"} {
		put(t, e, db.CFPost, k, "v-"+k)
	}

	it, err := e.NewIterator(db.CFPost)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()

	var keys []string
	for it.Seek(""); it.Valid(); it.Next() {
		keys = append(keys, it.Key())
	}
	want := []string{"p:1", "p:9", "t:1", "t:2", "t:3"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Fatalf("iteration order %v, want %v", keys, want)
	}
}

func testIteratorPrefix(t *testing.T, e db.Engine) {
	defer e.Close()

	put(t, e, db.CFPost, "p:1", "post")
	put(t, e, db.CFPost, "t:1", "idx-1")
	put(t, e, db.CFPost, "t:2", "idx-2")
	put(t, e, db.CFPost, "u:1", "other")

	it, err := e.NewIterator(db.CFPost)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()

	var keys []string
	for it.Seek("t:"); it.Valid(); it.Next() {
		k := it.Key()
		if len(k) < 2 || k[:2] != "t:" {
			break
		}
		keys = append(keys, k)
		if string(it.Value()) != "idx-"+k[2:] {
			t.Fatalf("value for %s = %q", k, it.Value())
		}
	}
	want := []string{"t:1", "t:2"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Fatalf("prefix scan %v, want %v", keys, want)
	}
}
