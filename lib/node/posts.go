package node

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/replkv/rkv/lib/record"
)

var postReplFailures = metrics.NewCounter("rkv_replicate_post_failures_total")

// newPostID builds "decimal(now_ms)-xxxxxxxx" with 8 lowercase hex digits
// of OS randomness. Collisions within one millisecond on one node are
// astronomically improbable.
func newPostID(ms int64) string {
	var b [4]byte
	if _, err := crand.Read(b[:]); err != nil {
		// last-resort fallback, keeps id generation total
		binary.LittleEndian.PutUint32(b[:], uint32(time.Now().UnixNano()))
	}
	return strconv.FormatInt(ms, 10) + "-" + hex.EncodeToString(b[:])
}

// createPost handles /post/create.
//
// The post is written to exactly the top two nodes of the live owner
// ranking, which may or may not include the originator. Both owners must
// acknowledge the if-absent put; a single refusal or timeout fails the
// whole create.
func (n *Node) createPost(body string) response {
	f := record.ParseForm(body)
	p := record.Post{
		ID:        f["id"],
		AccountID: f["account_id"],
		Title:     f["title"],
		Content:   f["content"],
		CreatedAt: nowMs(),
	}
	if p.ID == "" {
		p.ID = newPostID(p.CreatedAt)
	}
	if p.AccountID == "" || p.Title == "" || p.Content == "" {
		return failure(400, "fields")
	}

	has, err := n.store.HasAccount(p.AccountID)
	if err != nil {
		return failure(500, "db")
	}
	if !has {
		return failure(404, "account")
	}

	owners := n.postOwners(p.ID, true)
	if !n.cfg.SingleNode {
		if len(owners) > 2 {
			owners = owners[:2]
		}
		if len(owners) < 2 {
			return failure(503, "alive_lt_2")
		}
	}

	replBody := record.BuildForm([]record.Pair{
		{Key: "id", Value: p.ID},
		{Key: "account_id", Value: p.AccountID},
		{Key: "title", Value: p.Title},
		{Key: "content", Value: p.Content},
		{Key: "created_at", Value: strconv.FormatInt(p.CreatedAt, 10)},
		{Key: "if_absent", Value: "1"},
	})

	replicated := make([]bool, len(owners))
	var wg sync.WaitGroup
	for i, owner := range owners {
		i, owner := i, owner
		wg.Add(1)
		go func() {
			defer wg.Done()
			if owner.ID == n.cfg.NodeID {
				created, err := n.store.PutPost(p, true)
				replicated[i] = err == nil && created
				return
			}
			status, out, ok := n.call(owner, "/internal/post/put", replBody, 0)
			ok = ok && status == 200 && record.ParseForm(out)["ok"] == "1"
			n.live.Store(owner, ok)
			replicated[i] = ok
		}()
	}
	wg.Wait()

	for _, ok := range replicated {
		if !ok {
			postReplFailures.Inc()
			return failure(503, "replicate_post")
		}
	}

	return response{200, postBody(p)}
}

// getPost handles /post/get: local read, then a first-success fan-out.
//
// The full owner ranking is computed but the fan-out targets every non-self
// peer in it: with racing first-success reads the issue order cannot change
// the outcome, so the ranking is kept only as a latent optimization.
func (n *Node) getPost(body string) response {
	id := record.ParseForm(body)["id"]
	if id == "" {
		return failure(400, "id")
	}

	p, found, err := n.store.GetPost(id)
	if err != nil {
		return failure(500, "db")
	}
	if found {
		return response{200, postBody(p)}
	}
	if n.cfg.SingleNode {
		return failure(404, "not_found")
	}

	reqBody := record.BuildForm([]record.Pair{{Key: "id", Value: id}})
	timeout := n.cfg.ReadRemoteTimeout()
	owners := n.postOwners(id, false)

	var hitFound atomicHit
	var wg sync.WaitGroup

	for _, peer := range owners {
		if peer.ID == n.cfg.NodeID {
			continue
		}
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			if hitFound.done() {
				return
			}
			status, out, ok := n.call(peer, "/internal/post/get", reqBody, timeout)
			ok = ok && status == 200 && record.ParseForm(out)["ok"] == "1"
			n.live.Store(peer, ok)
			if ok {
				hitFound.set(out)
			}
		}()
	}
	wg.Wait()

	if body, ok := hitFound.get(); ok {
		return response{200, body}
	}
	return failure(404, "not_found")
}

// putPostInternal handles /internal/post/put. With if_absent=1 an existing
// row is a 409 conflict; without it the put is an unconditional replace that
// also rewrites the index entry.
func (n *Node) putPostInternal(body string) response {
	f := record.ParseForm(body)
	p := record.Post{
		ID:        f["id"],
		AccountID: f["account_id"],
		Title:     f["title"],
		Content:   f["content"],
		CreatedAt: f.Int64("created_at", nowMs()),
	}
	ifAbsent := f["if_absent"] == "1"

	created, err := n.store.PutPost(p, ifAbsent)
	if err != nil {
		return bare500()
	}
	if ifAbsent && !created {
		return failure(409, "exists")
	}
	return response{200, record.BuildForm([]record.Pair{{Key: "ok", Value: "1"}})}
}

// getPostInternal handles /internal/post/get: local only.
func (n *Node) getPostInternal(body string) response {
	id := record.ParseForm(body)["id"]

	p, found, err := n.store.GetPost(id)
	if err != nil {
		return failure(500, "db")
	}
	if !found {
		return response{404, record.BuildForm([]record.Pair{{Key: "ok", Value: "0"}})}
	}
	return response{200, postBody(p)}
}

func postBody(p record.Post) string {
	return record.BuildForm([]record.Pair{
		{Key: "ok", Value: "1"},
		{Key: "id", Value: p.ID},
		{Key: "account_id", Value: p.AccountID},
		{Key: "title", Value: p.Title},
		{Key: "content", Value: p.Content},
		{Key: "created_at", Value: strconv.FormatInt(p.CreatedAt, 10)},
	})
}
