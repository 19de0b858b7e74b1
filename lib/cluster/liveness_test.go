package cluster

import (
	"testing"
)

func TestLivenessLookupAndExpiry(t *testing.T) {
	l := NewLiveness(250, 80)
	now := int64(1_000_000)
	l.nowMs = func() int64 { return now }

	n := Node{ID: "n2", Host: "h", Port: 1}

	if _, known := l.Lookup(n); known {
		t.Fatal("empty cache reported a verdict")
	}

	l.Store(n, true)
	alive, known := l.Lookup(n)
	if !known || !alive {
		t.Fatalf("Lookup = %v, %v after alive store", alive, known)
	}

	// stays fresh until the alive TTL elapses
	now += 249
	if _, known := l.Lookup(n); !known {
		t.Fatal("entry expired early")
	}
	now += 1
	if _, known := l.Lookup(n); known {
		t.Fatal("entry survived its TTL")
	}
	// the expired entry was evicted, not just masked
	if _, ok := l.memo.Load(n.Key()); ok {
		t.Fatal("stale entry not evicted")
	}
}

func TestLivenessDeadTTL(t *testing.T) {
	l := NewLiveness(250, 80)
	now := int64(5_000)
	l.nowMs = func() int64 { return now }

	n := Node{ID: "n3", Host: "h", Port: 2}
	l.Store(n, false)

	alive, known := l.Lookup(n)
	if !known || alive {
		t.Fatalf("Lookup = %v, %v after dead store", alive, known)
	}

	now += 80
	if _, known := l.Lookup(n); known {
		t.Fatal("dead entry outlived the dead TTL")
	}
}

func TestLivenessZeroTTLIsNoop(t *testing.T) {
	l := NewLiveness(0, 80)
	n := Node{ID: "n1", Host: "h", Port: 3}

	l.Store(n, true) // alive TTL is zero, nothing stored
	if _, ok := l.memo.Load(n.Key()); ok {
		t.Fatal("alive verdict stored despite zero TTL")
	}

	l.Store(n, false)
	if _, ok := l.memo.Load(n.Key()); !ok {
		t.Fatal("dead verdict not stored")
	}
}

func TestLivenessFullyDisabled(t *testing.T) {
	l := NewLiveness(0, 0)
	n := Node{ID: "n1", Host: "h", Port: 4}
	l.Store(n, true)
	l.Store(n, false)
	if _, known := l.Lookup(n); known {
		t.Fatal("disabled cache returned a verdict")
	}
}
