// Package client implements the outbound side of the rkv protocol: one
// request per connection, a hard per-call deadline covering connect, send
// and receive, and read-to-EOF response handling.
package client

import (
	"io"
	"net"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/replkv/rkv/rpc/wire"
)

var callFailures = metrics.NewCounter("rkv_rpc_client_failures_total")

// Result is the outcome of one call. Status 0 marks a transport or parse
// failure and is distinct from every HTTP code; a timed-out call reports it
// and the eventual late reply dies with the closed connection.
type Result struct {
	Status int
	Body   string
}

// Post issues one request against addr ("host:port") with the given
// deadline. The deadline bounds the whole exchange; a zero or negative
// timeout is the caller's bug and treated as an immediate failure.
func Post(addr, path, body string, timeout time.Duration) Result {
	if timeout <= 0 {
		callFailures.Inc()
		return Result{}
	}

	deadline := time.Now().Add(timeout)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		callFailures.Inc()
		return Result{}
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		callFailures.Inc()
		return Result{}
	}

	if err := wire.WriteRequest(conn, addr, path, body); err != nil {
		callFailures.Inc()
		return Result{}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		callFailures.Inc()
		return Result{}
	}

	status, respBody, err := wire.ParseResponse(data)
	if err != nil {
		callFailures.Inc()
		return Result{}
	}
	return Result{Status: status, Body: respBody}
}
