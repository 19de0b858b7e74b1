package db

import "errors"

// Column family names. Default is reserved, account and post hold the two
// record kinds.
const (
	CFDefault = "default"
	CFAccount = "account"
	CFPost    = "post"
)

// ColumnFamilies lists every family an engine must create on open.
var ColumnFamilies = []string{CFDefault, CFAccount, CFPost}

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("db: key not found")

// --------------------------------------------------------------------------
// Write Batches
// --------------------------------------------------------------------------

// Op is a single entry of a write batch.
type Op struct {
	CF     string
	Key    string
	Value  []byte
	Delete bool
}

// Batch collects writes that an engine must apply atomically, possibly
// across column families.
type Batch struct {
	Ops []Op
}

// Put appends an insert-or-overwrite to the batch.
func (b *Batch) Put(cf, key string, value []byte) {
	b.Ops = append(b.Ops, Op{CF: cf, Key: key, Value: value})
}

// Delete appends a key removal to the batch.
func (b *Batch) Delete(cf, key string) {
	b.Ops = append(b.Ops, Op{CF: cf, Key: key, Delete: true})
}

// Len returns the number of operations in the batch.
func (b *Batch) Len() int {
	return len(b.Ops)
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Iterator walks a column family in ascending lexical key order. The caller
// must Close it when done.
type Iterator interface {
	// Seek positions the iterator at the first key >= prefix.
	Seek(prefix string)
	// Valid reports whether the iterator points at an entry.
	Valid() bool
	// Next advances to the following key.
	Next()
	// Key returns the current key. Only valid while Valid() is true.
	Key() string
	// Value returns the current value. Only valid while Valid() is true.
	Value() []byte
	// Close releases the iterator.
	Close() error
}

// Engine is the embedded store. Implementations must create the column
// families passed at open time and provide crash-consistent, atomic Write
// batches.
type Engine interface {
	// Get reads the value for a key, ErrNotFound if absent.
	Get(cf, key string) ([]byte, error)
	// Put inserts or overwrites a single key.
	Put(cf, key string, value []byte) error
	// Write applies a batch atomically.
	Write(b *Batch) error
	// NewIterator opens an iterator over one column family.
	NewIterator(cf string) (Iterator, error)
	// Close releases the engine. Further calls are undefined.
	Close() error
}
