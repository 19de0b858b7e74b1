package node

import (
	"sort"
	"sync"
	"time"

	"github.com/replkv/rkv/lib/cluster"
	"github.com/replkv/rkv/lib/record"
	rpcclient "github.com/replkv/rkv/rpc/client"
)

// fnv1a64 is the 64-bit FNV-1a hash used for owner ranking.
func fnv1a64(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	hash := uint64(offset64)
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}

// rankOwners orders the node set by descending fnv1a_64(postID + "|" +
// nodeID), ascending node id on a hash tie. The ranking is deterministic
// across the cluster for a given post id.
func rankOwners(postID string, nodes []cluster.Node) []cluster.Node {
	ranked := make([]cluster.Node, len(nodes))
	copy(ranked, nodes)

	sort.Slice(ranked, func(i, j int) bool {
		hi := fnv1a64(postID + "|" + ranked[i].ID)
		hj := fnv1a64(postID + "|" + ranked[j].ID)
		if hi == hj {
			return ranked[i].ID < ranked[j].ID
		}
		return hi > hj
	})
	return ranked
}

// postOwners returns the owner ranking for a post id. With aliveOnly set the
// ranking is filtered to nodes that currently probe alive, probing all of
// them in parallel where the cache has no fresh verdict.
func (n *Node) postOwners(postID string, aliveOnly bool) []cluster.Node {
	if n.cfg.SingleNode {
		return []cluster.Node{n.reg.Self()}
	}

	ranked := rankOwners(postID, n.reg.Nodes())
	if !aliveOnly {
		return ranked
	}

	up := make([]bool, len(ranked))
	var wg sync.WaitGroup
	for i := range ranked {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			up[i] = n.alive(ranked[i])
		}(i)
	}
	wg.Wait()

	var alive []cluster.Node
	for i, ok := range up {
		if ok {
			alive = append(alive, ranked[i])
		}
	}
	return alive
}

// alive reports whether a node is reachable. Self and single-node mode are
// always alive; otherwise a fresh cache verdict wins, and a cache miss costs
// one /internal/ping with the probe timeout. Every probe outcome refreshes
// the cache.
func (n *Node) alive(peer cluster.Node) bool {
	if n.cfg.SingleNode || peer.ID == n.cfg.NodeID {
		return true
	}

	if cached, known := n.live.Lookup(peer); known {
		return cached
	}

	res := rpcclient.Post(peer.Addr(), "/internal/ping", "", n.cfg.AliveProbeTimeout())
	ok := res.Status == 200 && record.ParseForm(res.Body)["ok"] == "1"
	n.live.Store(peer, ok)
	return ok
}

// call issues one RPC against a peer with the given deadline (the standard
// RPC timeout when zero). ok reports transport success only; callers layer
// their own status and body checks on top.
func (n *Node) call(peer cluster.Node, path, body string, timeout time.Duration) (status int, out string, ok bool) {
	if timeout <= 0 {
		timeout = n.cfg.RPCTimeout()
	}
	res := rpcclient.Post(peer.Addr(), path, body, timeout)
	return res.Status, res.Body, res.Status > 0
}
