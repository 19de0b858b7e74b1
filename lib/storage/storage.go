package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/replkv/rkv/lib/db"
	"github.com/replkv/rkv/lib/record"
)

var (
	backfillTotal  = metrics.NewCounter("rkv_title_backfill_total")
	backfillErrors = metrics.NewCounter("rkv_title_backfill_errors_total")
)

// Store serializes all engine access behind one mutex so that read-check-
// write sequences (if-absent puts, stale index cleanup) are atomic with
// respect to each other.
type Store struct {
	mu  sync.Mutex
	eng db.Engine
}

// New wraps an opened engine.
func New(eng db.Engine) *Store {
	return &Store{eng: eng}
}

// Close releases the underlying engine.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Close()
}

// --------------------------------------------------------------------------
// Key Layout
// --------------------------------------------------------------------------

const maxIndexTs = 9_999_999_999_999

func accountKey(id string) string { return "a:" + id }
func postKey(id string) string    { return "p:" + id }

// TitleIndexKey builds the ordering key "t:<13-digit REV>:<id>" where REV is
// the created_at timestamp clamped to 13 decimal digits and reversed, so
// that ascending lexical key order is descending created_at.
func TitleIndexKey(createdAt int64, id string) string {
	ts := createdAt
	if ts < 0 {
		ts = 0
	} else if ts > maxIndexTs {
		ts = maxIndexTs
	}
	return fmt.Sprintf("t:%013d:%s", maxIndexTs-ts, id)
}

// --------------------------------------------------------------------------
// Accounts
// --------------------------------------------------------------------------

// PutAccount writes an account record. With ifAbsent set an existing row is
// left untouched and created reports false; the caller decides whether that
// is a conflict.
func (s *Store) PutAccount(a record.Account, ifAbsent bool) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey(a.ID)
	if ifAbsent {
		_, err := s.eng.Get(db.CFAccount, key)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return false, err
		}
	}

	if err := s.eng.Put(db.CFAccount, key, []byte(a.Form())); err != nil {
		return false, err
	}
	return true, nil
}

// GetAccount reads an account by id. found is false on a clean miss.
func (s *Store) GetAccount(id string) (a record.Account, found bool, err error) {
	s.mu.Lock()
	val, err := s.eng.Get(db.CFAccount, accountKey(id))
	s.mu.Unlock()

	if errors.Is(err, db.ErrNotFound) {
		return record.Account{}, false, nil
	}
	if err != nil {
		return record.Account{}, false, err
	}

	a = record.AccountFromForm(record.ParseForm(string(val)))
	if a.ID == "" {
		return record.Account{}, false, nil
	}
	return a, true, nil
}

// HasAccount reports whether an account row exists.
func (s *Store) HasAccount(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.eng.Get(db.CFAccount, accountKey(id))
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// --------------------------------------------------------------------------
// Posts
// --------------------------------------------------------------------------

// PutPost writes the primary post record and its title-index entry in one
// atomic batch. An unconditional put that changes (id, created_at) relative
// to the stored row also deletes the stale index entry in the same batch.
func (s *Store) PutPost(p record.Post, ifAbsent bool) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := postKey(p.ID)
	var oldVal []byte
	hadOld := false

	if ifAbsent {
		_, err := s.eng.Get(db.CFPost, key)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return false, err
		}
	} else {
		val, err := s.eng.Get(db.CFPost, key)
		if err == nil {
			oldVal = val
			hadOld = true
		} else if !errors.Is(err, db.ErrNotFound) {
			return false, err
		}
	}

	var b db.Batch
	b.Put(db.CFPost, key, []byte(p.Form()))
	b.Put(db.CFPost, TitleIndexKey(p.CreatedAt, p.ID), []byte(p.TitleForm()))

	if hadOld {
		old := record.PostFromForm(record.ParseForm(string(oldVal)))
		oldID := old.ID
		if oldID == "" {
			oldID = p.ID
		}
		if oldID != p.ID || old.CreatedAt != p.CreatedAt {
			b.Delete(db.CFPost, TitleIndexKey(old.CreatedAt, oldID))
		}
	}

	if err := s.eng.Write(&b); err != nil {
		return false, err
	}
	return true, nil
}

// GetPost reads a post by id. found is false on a clean miss.
func (s *Store) GetPost(id string) (p record.Post, found bool, err error) {
	s.mu.Lock()
	val, err := s.eng.Get(db.CFPost, postKey(id))
	s.mu.Unlock()

	if errors.Is(err, db.ErrNotFound) {
		return record.Post{}, false, nil
	}
	if err != nil {
		return record.Post{}, false, err
	}

	p = record.PostFromForm(record.ParseForm(string(val)))
	if p.ID == "" {
		return record.Post{}, false, nil
	}
	return p, true, nil
}

// --------------------------------------------------------------------------
// Title Listing
// --------------------------------------------------------------------------

// LocalTitles returns up to limit title projections in recency order.
//
// The fast path scans the "t:" index, whose key order already realizes
// (created_at desc, id asc). When the index is empty but posts exist, the
// primaries are scanned, the index is rebuilt best-effort in one batch, and
// the scanned posts are returned sorted (created_at desc, id desc). With
// limit <= 0 the backfill path returns the raw scan unsorted; every wire
// path clamps limit to at least 1, so that shape is only reachable from
// direct callers.
func (s *Store) LocalTitles(limit int) ([]record.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.eng.NewIterator(db.CFPost)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var indexed []record.Post
	for it.Seek("t:"); it.Valid(); it.Next() {
		if !strings.HasPrefix(it.Key(), "t:") {
			break
		}
		p := record.PostFromForm(record.ParseForm(string(it.Value())))
		if p.ID == "" {
			continue
		}
		indexed = append(indexed, p)
		if limit > 0 && len(indexed) >= limit {
			return indexed, nil
		}
	}
	if len(indexed) > 0 {
		return indexed, nil
	}

	var scanned []record.Post
	for it.Seek("p:"); it.Valid(); it.Next() {
		if !strings.HasPrefix(it.Key(), "p:") {
			break
		}
		p := record.PostFromForm(record.ParseForm(string(it.Value())))
		if p.ID == "" {
			continue
		}
		scanned = append(scanned, p)
	}
	if len(scanned) == 0 {
		return nil, nil
	}

	// index self-heal: rebuild in one batch, keep serving on failure
	backfillTotal.Inc()
	var b db.Batch
	for _, p := range scanned {
		b.Put(db.CFPost, TitleIndexKey(p.CreatedAt, p.ID), []byte(p.TitleForm()))
	}
	if err := s.eng.Write(&b); err != nil {
		backfillErrors.Inc()
	}

	if limit <= 0 {
		return scanned, nil
	}

	SortTitles(scanned)
	if len(scanned) > limit {
		scanned = scanned[:limit]
	}
	return scanned, nil
}

// SortTitles orders posts by created_at descending, id descending within
// ties. The same comparator is applied to local results and to merged
// aggregation results.
func SortTitles(posts []record.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt == posts[j].CreatedAt {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt > posts[j].CreatedAt
	})
}
