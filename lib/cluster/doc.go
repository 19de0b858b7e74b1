// Package cluster models the static node set a rkv process belongs to.
//
// The cluster descriptor is parsed once at startup; membership never changes
// at runtime. The package also keeps the per-peer liveness cache: a bounded
// TTL memo of recent probe outcomes with separate TTLs for alive and dead
// verdicts. Cache entries are advisory - a wrong "alive" only degrades an
// operation, it never corrupts data.
package cluster
