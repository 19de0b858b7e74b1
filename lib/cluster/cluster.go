package cluster

import (
	"fmt"
	"strconv"
	"strings"
)

// Node describes one cluster member.
type Node struct {
	ID   string
	Host string
	Port int
}

// Key is the canonical "id@host:port" form used for cache keys and logs.
func (n Node) Key() string {
	return fmt.Sprintf("%s@%s:%d", n.ID, n.Host, n.Port)
}

// Addr is the dialable "host:port" form.
func (n Node) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// ParseNodes parses a comma-separated descriptor of "id@host:port" tokens.
// An "http://" scheme prefix and any "/..." path suffix on the host part are
// stripped, surrounding whitespace is trimmed, and malformed tokens are
// silently dropped.
func ParseNodes(s string) []Node {
	var nodes []Node

	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		at := strings.Index(tok, "@")
		if at <= 0 {
			continue
		}
		id := strings.TrimSpace(tok[:at])
		hp := strings.TrimSpace(tok[at+1:])
		hp = strings.TrimPrefix(hp, "http://")
		if slash := strings.Index(hp, "/"); slash >= 0 {
			hp = hp[:slash]
		}

		colon := strings.LastIndex(hp, ":")
		if id == "" || colon <= 0 {
			continue
		}
		port, err := strconv.Atoi(hp[colon+1:])
		if err != nil || port <= 0 {
			continue
		}
		host := hp[:colon]
		if host == "" {
			continue
		}
		nodes = append(nodes, Node{ID: id, Host: host, Port: port})
	}
	return nodes
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry is the immutable member list of this process.
type Registry struct {
	self   Node
	nodes  []Node
	single bool
}

// NewRegistry builds the member list. In single-node mode the descriptor is
// ignored and the cluster collapses to the local node. In cluster mode a
// descriptor that lacks an entry with the self id gets the local node
// appended.
func NewRegistry(selfID string, port int, descriptor string, singleNode bool) *Registry {
	self := Node{ID: selfID, Host: "127.0.0.1", Port: port}

	if singleNode {
		return &Registry{self: self, nodes: []Node{self}, single: true}
	}

	nodes := ParseNodes(descriptor)
	found := false
	for _, n := range nodes {
		if n.ID == selfID {
			found = true
			break
		}
	}
	if !found {
		nodes = append(nodes, self)
	}
	return &Registry{self: self, nodes: nodes}
}

// Self returns the local node descriptor.
func (r *Registry) Self() Node { return r.self }

// Single reports single-node mode.
func (r *Registry) Single() bool { return r.single }

// Nodes returns a copy of the full member list.
func (r *Registry) Nodes() []Node {
	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Peers returns a copy of the member list without the local node.
func (r *Registry) Peers() []Node {
	var out []Node
	for _, n := range r.nodes {
		if n.ID == r.self.ID {
			continue
		}
		out = append(out, n)
	}
	return out
}
