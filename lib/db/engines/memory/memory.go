// Package memory is an in-memory db.Engine used by tests. It keeps one
// unordered map per column family and snapshots and sorts its keys on every seek,
// which is plenty for test-sized data sets.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/replkv/rkv/lib/db"
)

type engine struct {
	mu  sync.Mutex
	cfs map[string]map[string][]byte
}

// New creates an empty engine with the given column families.
func New(cfs []string) db.Engine {
	e := &engine{cfs: map[string]map[string][]byte{}}
	for _, cf := range cfs {
		e.cfs[cf] = map[string][]byte{}
	}
	return e
}

func (e *engine) family(cf string) (map[string][]byte, error) {
	m, ok := e.cfs[cf]
	if !ok {
		return nil, fmt.Errorf("memory: unknown column family %q", cf)
	}
	return m, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.Engine)
// --------------------------------------------------------------------------

func (e *engine) Get(cf, key string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.family(cf)
	if err != nil {
		return nil, err
	}
	v, ok := m[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (e *engine) Put(cf, key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.family(cf)
	if err != nil {
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)
	m[key] = v
	return nil
}

func (e *engine) Write(b *db.Batch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// validate first so a bad op leaves the engine untouched
	for _, op := range b.Ops {
		if _, err := e.family(op.CF); err != nil {
			return err
		}
	}
	for _, op := range b.Ops {
		m := e.cfs[op.CF]
		if op.Delete {
			delete(m, op.Key)
			continue
		}
		v := make([]byte, len(op.Value))
		copy(v, op.Value)
		m[op.Key] = v
	}
	return nil
}

func (e *engine) NewIterator(cf string) (db.Iterator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.family(cf); err != nil {
		return nil, err
	}
	return &iterator{eng: e, cf: cf}, nil
}

func (e *engine) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

type iterator struct {
	eng  *engine
	cf   string
	keys []string
	pos  int
}

func (i *iterator) Seek(prefix string) {
	i.eng.mu.Lock()
	defer i.eng.mu.Unlock()

	m := i.eng.cfs[i.cf]
	i.keys = i.keys[:0]
	for k := range m {
		if k >= prefix {
			i.keys = append(i.keys, k)
		}
	}
	sort.Strings(i.keys)
	i.pos = 0
}

func (i *iterator) Valid() bool {
	return i.pos < len(i.keys)
}

func (i *iterator) Next() {
	i.pos++
}

func (i *iterator) Key() string {
	return i.keys[i.pos]
}

func (i *iterator) Value() []byte {
	i.eng.mu.Lock()
	defer i.eng.mu.Unlock()

	v := i.eng.cfs[i.cf][i.keys[i.pos]]
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (i *iterator) Close() error {
	return nil
}
