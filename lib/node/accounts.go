package node

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/replkv/rkv/lib/record"
)

var accountReplFailures = metrics.NewCounter("rkv_replicate_account_failures_total")

// createAccount handles /account/create.
//
// The local if-absent put happens first; replication then fans out to every
// peer and all of them must acknowledge. A partial replication failure is
// reported as 503 even though the local row is already durable - a later
// read served by this node will return the account. This asymmetry is
// deliberate and inherited; there is no rollback and no retry.
func (n *Node) createAccount(body string) response {
	f := record.ParseForm(body)
	a := record.Account{
		ID:           f["id"],
		Name:         f["name"],
		PasswordHash: f["password_hash"],
		CreatedAt:    nowMs(),
	}
	if a.ID == "" || a.Name == "" {
		return failure(400, "id_name")
	}

	created, err := n.store.PutAccount(a, true)
	if err != nil {
		return failure(500, "db")
	}
	if !created {
		return failure(409, "exists")
	}

	if !n.cfg.SingleNode {
		replBody := a.Form()
		var failed atomic.Bool
		var wg sync.WaitGroup

		for _, peer := range n.reg.Peers() {
			peer := peer
			wg.Add(1)
			go func() {
				defer wg.Done()
				status, out, ok := n.call(peer, "/internal/account/put", replBody, 0)
				ok = ok && status == 200 && record.ParseForm(out)["ok"] == "1"
				n.live.Store(peer, ok)
				if !ok {
					failed.Store(true)
				}
			}()
		}
		wg.Wait()

		if failed.Load() {
			accountReplFailures.Inc()
			return failure(503, "replicate_account")
		}
	}

	return response{200, record.BuildForm([]record.Pair{
		{Key: "ok", Value: "1"},
		{Key: "id", Value: a.ID},
		{Key: "name", Value: a.Name},
	})}
}

// getAccount handles /account/get: local read first, then a parallel
// first-success fan-out to every peer.
func (n *Node) getAccount(body string) response {
	id := record.ParseForm(body)["id"]
	if id == "" {
		return failure(400, "id")
	}

	a, found, err := n.store.GetAccount(id)
	if err != nil {
		return failure(500, "db")
	}
	if found {
		return response{200, accountBody(a)}
	}
	if n.cfg.SingleNode {
		return failure(404, "not_found")
	}

	reqBody := record.BuildForm([]record.Pair{{Key: "id", Value: id}})
	timeout := n.cfg.ReadRemoteTimeout()

	var hit atomicHit
	var wg sync.WaitGroup

	for _, peer := range n.reg.Peers() {
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			if hit.done() {
				return
			}
			status, out, ok := n.call(peer, "/internal/account/get", reqBody, timeout)
			ok = ok && status == 200 && record.ParseForm(out)["ok"] == "1"
			n.live.Store(peer, ok)
			if ok {
				hit.set(out)
			}
		}()
	}
	wg.Wait()

	if body, ok := hit.get(); ok {
		return response{200, body}
	}
	return failure(404, "not_found")
}

// putAccountInternal handles /internal/account/put: an unconditional local
// replace, no cross-replication.
func (n *Node) putAccountInternal(body string) response {
	f := record.ParseForm(body)
	a := record.Account{
		ID:           f["id"],
		Name:         f["name"],
		PasswordHash: f["password_hash"],
		CreatedAt:    f.Int64("created_at", nowMs()),
	}

	if _, err := n.store.PutAccount(a, false); err != nil {
		return bare500()
	}
	return response{200, record.BuildForm([]record.Pair{{Key: "ok", Value: "1"}})}
}

// getAccountInternal handles /internal/account/get: local only.
func (n *Node) getAccountInternal(body string) response {
	id := record.ParseForm(body)["id"]
	if id == "" {
		return failure(400, "id")
	}

	a, found, err := n.store.GetAccount(id)
	if err != nil {
		return failure(500, "db")
	}
	if !found {
		return failure(404, "not_found")
	}
	return response{200, accountBody(a)}
}

func accountBody(a record.Account) string {
	return record.BuildForm([]record.Pair{
		{Key: "ok", Value: "1"},
		{Key: "id", Value: a.ID},
		{Key: "name", Value: a.Name},
		{Key: "password_hash", Value: a.PasswordHash},
		{Key: "created_at", Value: strconv.FormatInt(a.CreatedAt, 10)},
	})
}
