// Package pebble backs the db.Engine interface with a cockroachdb/pebble
// log-structured store.
//
// Pebble has no native column families. Each family is mapped onto a key
// namespace "<cf>\x00<key>"; a single pebble batch therefore gives the
// required atomicity across families for free, and family iteration is a
// bounded pebble iterator over the namespace.
package pebble

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/replkv/rkv/lib/db"
)

// cfSep terminates the family name inside a physical key. Family names are
// ASCII, so no valid name contains it.
const cfSep = "\x00"

type engine struct {
	pdb *pebble.DB
}

// Open creates or opens the store at path with the given column families.
// Families need no per-family setup under the namespace mapping; the list is
// validated so that a misspelled family fails at open instead of at first
// use.
func Open(path string, cfs []string) (db.Engine, error) {
	known := map[string]bool{}
	for _, cf := range cfs {
		if cf == "" {
			return nil, fmt.Errorf("pebble: empty column family name")
		}
		known[cf] = true
	}
	for _, cf := range db.ColumnFamilies {
		if !known[cf] {
			return nil, fmt.Errorf("pebble: missing column family %q", cf)
		}
	}

	pdb, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", path, err)
	}
	return &engine{pdb: pdb}, nil
}

func physKey(cf, key string) []byte {
	out := make([]byte, 0, len(cf)+1+len(key))
	out = append(out, cf...)
	out = append(out, cfSep...)
	out = append(out, key...)
	return out
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.Engine)
// --------------------------------------------------------------------------

func (e *engine) Get(cf, key string) ([]byte, error) {
	val, closer, err := e.pdb.Get(physKey(cf, key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	out := make([]byte, len(val))
	copy(out, val)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *engine) Put(cf, key string, value []byte) error {
	return e.pdb.Set(physKey(cf, key), value, pebble.Sync)
}

func (e *engine) Write(b *db.Batch) error {
	pb := e.pdb.NewBatch()
	defer pb.Close()

	for _, op := range b.Ops {
		if op.Delete {
			if err := pb.Delete(physKey(op.CF, op.Key), nil); err != nil {
				return err
			}
			continue
		}
		if err := pb.Set(physKey(op.CF, op.Key), op.Value, nil); err != nil {
			return err
		}
	}
	return pb.Commit(pebble.Sync)
}

func (e *engine) NewIterator(cf string) (db.Iterator, error) {
	lower := physKey(cf, "")
	upper := make([]byte, len(lower))
	copy(upper, lower)
	upper[len(upper)-1]++ // cfSep is 0x00, so this bounds the namespace

	it, err := e.pdb.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return nil, err
	}
	return &iterator{it: it, ns: lower}, nil
}

func (e *engine) Close() error {
	return e.pdb.Close()
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

type iterator struct {
	it *pebble.Iterator
	ns []byte // the "<cf>\x00" namespace prefix
}

func (i *iterator) Seek(prefix string) {
	key := make([]byte, 0, len(i.ns)+len(prefix))
	key = append(key, i.ns...)
	key = append(key, prefix...)
	i.it.SeekGE(key)
}

func (i *iterator) Valid() bool {
	return i.it.Valid()
}

func (i *iterator) Next() {
	i.it.Next()
}

func (i *iterator) Key() string {
	return string(i.it.Key()[len(i.ns):])
}

func (i *iterator) Value() []byte {
	v := i.it.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (i *iterator) Close() error {
	return i.it.Close()
}
