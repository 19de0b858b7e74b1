package client

import (
	"net"
	"testing"
	"time"

	"github.com/replkv/rkv/rpc/wire"
)

// serveOnce accepts one connection, reads the request and answers with the
// given response after an optional delay.
func serveOnce(t *testing.T, status int, body string, delay time.Duration) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := wire.ReadRequest(conn); err != nil {
			return
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		wire.WriteResponse(conn, status, body)
	}()

	return ln.Addr().String()
}

func TestPost(t *testing.T) {
	addr := serveOnce(t, 200, "ok=1&id=alice", 0)

	res := Post(addr, "/account/get", "id=alice", time.Second)
	if res.Status != 200 || res.Body != "ok=1&id=alice" {
		t.Fatalf("Post = %+v", res)
	}
}

func TestPostNonOKStatusIsNotAFailure(t *testing.T) {
	addr := serveOnce(t, 409, "ok=0&error=exists", 0)

	res := Post(addr, "/account/create", "id=a&name=b", time.Second)
	if res.Status != 409 || res.Body != "ok=0&error=exists" {
		t.Fatalf("Post = %+v", res)
	}
}

func TestPostConnectFailure(t *testing.T) {
	// grab a port and close it again so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	res := Post(addr, "/internal/ping", "", 300*time.Millisecond)
	if res.Status != 0 {
		t.Fatalf("Post against closed port = %+v", res)
	}
}

func TestPostTimeout(t *testing.T) {
	addr := serveOnce(t, 200, "ok=1", 500*time.Millisecond)

	start := time.Now()
	res := Post(addr, "/internal/ping", "", 100*time.Millisecond)
	if res.Status != 0 {
		t.Fatalf("slow peer reported %+v", res)
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Fatalf("deadline not enforced, call took %v", time.Since(start))
	}
}

func TestPostZeroTimeout(t *testing.T) {
	if res := Post("127.0.0.1:1", "/internal/ping", "", 0); res.Status != 0 {
		t.Fatalf("zero timeout reported %+v", res)
	}
}
