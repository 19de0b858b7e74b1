// Package node wires storage, cluster state and the RPC surface into one
// running rkv process.
//
// A Node owns the accept loop and the request dispatcher, and implements the
// replication and read coordination on top of them: synchronous all-required
// write fan-out for accounts, deterministic two-owner replication for posts,
// parallel first-success reads, and a time-budgeted scatter/gather for the
// title listing. External paths coordinate across the cluster; internal
// paths touch local storage only.
package node
