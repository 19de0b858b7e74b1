package node

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/replkv/rkv/lib/record"
	"github.com/replkv/rkv/rpc/wire"
)

// response is a handler outcome before framing.
type response struct {
	status int
	body   string
}

// failure builds an "ok=0" body carrying a machine-readable error code.
func failure(status int, code string) response {
	return response{status, record.BuildForm([]record.Pair{{Key: "ok", Value: "0"}, {Key: "error", Value: code}})}
}

// bare500 is the internal-put failure shape: ok=0 with no error field.
func bare500() response {
	return response{500, record.BuildForm([]record.Pair{{Key: "ok", Value: "0"}})}
}

func readRequest(r io.Reader) (*wire.Request, error) {
	return wire.ReadRequest(r)
}

func writeResponse(w io.Writer, resp response) error {
	return wire.WriteResponse(w, resp.status, resp.body)
}

// handle routes one request. External paths coordinate across the cluster,
// internal paths stay local.
func (n *Node) handle(req *wire.Request) response {
	if req.Method != "POST" {
		return failure(405, "method")
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_requests_total{path=%q}`, req.Path)).Inc()

	switch req.Path {
	case "/account/create":
		return n.createAccount(req.Body)
	case "/account/get":
		return n.getAccount(req.Body)
	case "/post/create":
		return n.createPost(req.Body)
	case "/post/get":
		return n.getPost(req.Body)
	case "/post/titles":
		return n.listTitles(req.Body)

	case "/internal/account/put":
		return n.putAccountInternal(req.Body)
	case "/internal/account/get":
		return n.getAccountInternal(req.Body)
	case "/internal/post/put":
		return n.putPostInternal(req.Body)
	case "/internal/post/get":
		return n.getPostInternal(req.Body)
	case "/internal/post/titles":
		return n.listTitlesInternal(req.Body)
	case "/internal/ping":
		return n.ping()
	}

	return failure(404, "path")
}

func (n *Node) ping() response {
	return response{200, record.BuildForm([]record.Pair{{Key: "ok", Value: "1"}})}
}
