// Package db defines the interface to the embedded key-value engine used by
// the storage layer.
//
// The engine is an opaque ordered key->value store partitioned into named
// column families. It offers point reads and writes, atomic multi-key write
// batches that may span column families, and iteration over a key prefix in
// ascending lexical order. The storage layer never sees engine-specific
// types; production nodes run the pebble engine, tests run the memory
// engine, and both are exercised by the shared suite in dbtesting.
package db
