// Package storage is the node-local persistence layer on top of db.Engine.
//
// It owns the key layout of both record kinds, keeps the post title index in
// lockstep with the primary records via atomic write batches, and rebuilds
// the index from a primary scan when a cold read finds it missing. All
// engine access is serialized through one store-wide mutex.
package storage
