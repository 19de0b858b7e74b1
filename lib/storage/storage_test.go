package storage

import (
	"fmt"
	"testing"

	"github.com/replkv/rkv/lib/db"
	"github.com/replkv/rkv/lib/db/engines/memory"
	"github.com/replkv/rkv/lib/record"
)

func newStore() *Store {
	return New(memory.New(db.ColumnFamilies))
}

func TestTitleIndexKey(t *testing.T) {
	cases := []struct {
		ts   int64
		id   string
		want string
	}{
		{0, "x", "t:9999999999999:x"},
		{1, "x", "t:9999999999998:x"},
		{9_999_999_999_999, "x", "t:0000000000000:x"},
		// clamping
		{-5, "x", "t:9999999999999:x"},
		{10_000_000_000_000, "x", "t:0000000000000:x"},
	}
	for _, c := range cases {
		if got := TitleIndexKey(c.ts, c.id); got != c.want {
			t.Errorf("TitleIndexKey(%d, %q) = %q, want %q", c.ts, c.id, got, c.want)
		}
	}
}

// Lexical key order must agree with descending created_at, and with
// ascending id within a timestamp tie.
func TestTitleIndexKeyOrdering(t *testing.T) {
	timestamps := []int64{0, 1, 999, 1000, 1_699_999_999_999, 9_999_999_999_999}
	for i := 0; i < len(timestamps); i++ {
		for j := i + 1; j < len(timestamps); j++ {
			lo, hi := timestamps[i], timestamps[j]
			if !(TitleIndexKey(hi, "a") < TitleIndexKey(lo, "a")) {
				t.Errorf("key for ts=%d not before key for ts=%d", hi, lo)
			}
		}
	}

	if !(TitleIndexKey(5, "a") < TitleIndexKey(5, "b")) {
		t.Errorf("tie break not ascending by id")
	}
}

func TestPutGetAccount(t *testing.T) {
	s := newStore()
	defer s.Close()

	a := record.Account{ID: "alice", Name: "Alice", CreatedAt: 100}
	created, err := s.PutAccount(a, true)
	if err != nil || !created {
		t.Fatalf("PutAccount = %v, %v", created, err)
	}

	got, found, err := s.GetAccount("alice")
	if err != nil || !found {
		t.Fatalf("GetAccount = %v, %v", found, err)
	}
	if got != a {
		t.Fatalf("GetAccount = %+v, want %+v", got, a)
	}

	// if-absent against an existing row reports created=false and keeps the row
	created, err = s.PutAccount(record.Account{ID: "alice", Name: "Mallory", CreatedAt: 999}, true)
	if err != nil || created {
		t.Fatalf("second PutAccount = %v, %v", created, err)
	}
	got, _, _ = s.GetAccount("alice")
	if got.Name != "Alice" {
		t.Fatalf("existing row was overwritten: %+v", got)
	}

	if _, found, _ := s.GetAccount("nobody"); found {
		t.Fatalf("GetAccount(nobody) found a row")
	}
}

func TestPutPostWritesIndexEntry(t *testing.T) {
	eng := memory.New(db.ColumnFamilies)
	s := New(eng)
	defer s.Close()

	p := record.Post{ID: "p1", AccountID: "alice", Title: "T", Content: "C", CreatedAt: 42}
	if created, err := s.PutPost(p, true); err != nil || !created {
		t.Fatalf("PutPost = %v, %v", created, err)
	}

	val, err := eng.Get(db.CFPost, TitleIndexKey(42, "p1"))
	if err != nil {
		t.Fatalf("index entry missing: %v", err)
	}
	proj := record.PostFromForm(record.ParseForm(string(val)))
	if proj.ID != "p1" || proj.Title != "T" || proj.Content != "" || proj.CreatedAt != 42 {
		t.Fatalf("index projection = %+v", proj)
	}
}

func TestPutPostReplaceDropsStaleIndexEntry(t *testing.T) {
	eng := memory.New(db.ColumnFamilies)
	s := New(eng)
	defer s.Close()

	if _, err := s.PutPost(record.Post{ID: "p1", AccountID: "a", Title: "old", Content: "c", CreatedAt: 10}, false); err != nil {
		t.Fatalf("PutPost: %v", err)
	}
	if _, err := s.PutPost(record.Post{ID: "p1", AccountID: "a", Title: "new", Content: "c", CreatedAt: 20}, false); err != nil {
		t.Fatalf("PutPost: %v", err)
	}

	if _, err := eng.Get(db.CFPost, TitleIndexKey(10, "p1")); err != db.ErrNotFound {
		t.Fatalf("stale index entry survived: %v", err)
	}
	if _, err := eng.Get(db.CFPost, TitleIndexKey(20, "p1")); err != nil {
		t.Fatalf("new index entry missing: %v", err)
	}
}

func TestPutPostIfAbsentConflict(t *testing.T) {
	s := newStore()
	defer s.Close()

	p := record.Post{ID: "p1", AccountID: "a", Title: "T", Content: "C", CreatedAt: 1}
	if created, _ := s.PutPost(p, true); !created {
		t.Fatalf("first put not created")
	}
	created, err := s.PutPost(record.Post{ID: "p1", AccountID: "b", Title: "X", Content: "Y", CreatedAt: 2}, true)
	if err != nil {
		t.Fatalf("PutPost: %v", err)
	}
	if created {
		t.Fatalf("if-absent put claimed creation over existing row")
	}

	got, _, _ := s.GetPost("p1")
	if got.Title != "T" {
		t.Fatalf("existing row mutated: %+v", got)
	}
}

func TestLocalTitlesOrderAndLimit(t *testing.T) {
	s := newStore()
	defer s.Close()

	for i := 1; i <= 5; i++ {
		p := record.Post{
			ID:        fmt.Sprintf("p%d", i),
			AccountID: "a",
			Title:     fmt.Sprintf("title %d", i),
			Content:   "c",
			CreatedAt: int64(i * 100),
		}
		if _, err := s.PutPost(p, true); err != nil {
			t.Fatalf("PutPost: %v", err)
		}
	}

	titles, err := s.LocalTitles(3)
	if err != nil {
		t.Fatalf("LocalTitles: %v", err)
	}
	if len(titles) != 3 {
		t.Fatalf("got %d titles, want 3", len(titles))
	}
	for i, wantID := range []string{"p5", "p4", "p3"} {
		if titles[i].ID != wantID {
			t.Fatalf("titles[%d] = %s, want %s", i, titles[i].ID, wantID)
		}
	}
}

func TestLocalTitlesBackfill(t *testing.T) {
	eng := memory.New(db.ColumnFamilies)
	s := New(eng)
	defer s.Close()

	// primaries without index entries, as if the index was lost
	for i := 1; i <= 3; i++ {
		p := record.Post{ID: fmt.Sprintf("p%d", i), AccountID: "a", Title: "t", Content: "c", CreatedAt: int64(i)}
		if err := eng.Put(db.CFPost, "p:"+p.ID, []byte(p.Form())); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	titles, err := s.LocalTitles(10)
	if err != nil {
		t.Fatalf("LocalTitles: %v", err)
	}
	if len(titles) != 3 {
		t.Fatalf("got %d titles, want 3", len(titles))
	}
	if titles[0].ID != "p3" || titles[2].ID != "p1" {
		t.Fatalf("backfilled titles out of order: %v", titles)
	}

	// the scan must have rebuilt the index
	for i := 1; i <= 3; i++ {
		if _, err := eng.Get(db.CFPost, TitleIndexKey(int64(i), fmt.Sprintf("p%d", i))); err != nil {
			t.Fatalf("index entry for p%d missing after backfill: %v", i, err)
		}
	}

	// and the next read serves from the index
	titles, err = s.LocalTitles(2)
	if err != nil || len(titles) != 2 {
		t.Fatalf("post-backfill LocalTitles = %d titles, %v", len(titles), err)
	}
}

func TestSortTitlesTieBreak(t *testing.T) {
	posts := []record.Post{
		{ID: "a", CreatedAt: 5},
		{ID: "c", CreatedAt: 5},
		{ID: "b", CreatedAt: 9},
	}
	SortTitles(posts)

	want := []string{"b", "c", "a"}
	for i, id := range want {
		if posts[i].ID != id {
			t.Fatalf("sorted[%d] = %s, want %s", i, posts[i].ID, id)
		}
	}
}
