package cluster

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type memoEntry struct {
	alive     bool
	expiresAt int64 // ms since epoch
}

// Liveness memoizes recent peer probe outcomes. Positive and negative
// verdicts carry separate TTLs; a TTL of zero disables caching for that
// class.
type Liveness struct {
	aliveTTLms int64
	deadTTLms  int64
	memo       *xsync.MapOf[string, memoEntry]
	nowMs      func() int64
}

// NewLiveness creates a cache with the given TTLs in milliseconds. Negative
// TTLs are treated as zero.
func NewLiveness(aliveTTLms, deadTTLms int) *Liveness {
	clamp := func(v int) int64 {
		if v < 0 {
			return 0
		}
		return int64(v)
	}
	return &Liveness{
		aliveTTLms: clamp(aliveTTLms),
		deadTTLms:  clamp(deadTTLms),
		memo:       xsync.NewMapOf[string, memoEntry](),
		nowMs:      func() int64 { return time.Now().UnixMilli() },
	}
}

// Lookup returns the cached verdict for the node, if one is present and
// fresh. A stale entry is evicted and reported as unknown.
func (l *Liveness) Lookup(n Node) (alive, known bool) {
	if l.aliveTTLms <= 0 && l.deadTTLms <= 0 {
		return false, false
	}

	key := n.Key()
	e, ok := l.memo.Load(key)
	if !ok {
		return false, false
	}
	if e.expiresAt <= l.nowMs() {
		l.memo.Delete(key)
		return false, false
	}
	return e.alive, true
}

// Store records a probe outcome. With the TTL for the verdict's class set to
// zero the store is a no-op.
func (l *Liveness) Store(n Node, alive bool) {
	ttl := l.deadTTLms
	if alive {
		ttl = l.aliveTTLms
	}
	if ttl <= 0 {
		return
	}
	l.memo.Store(n.Key(), memoEntry{alive: alive, expiresAt: l.nowMs() + ttl})
}
