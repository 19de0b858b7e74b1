package node

import (
	"strconv"
	"sync"
	"time"

	"github.com/replkv/rkv/lib/record"
	"github.com/replkv/rkv/lib/storage"
)

// listTitles handles /post/titles: local recency scan merged with a
// time-budgeted scatter/gather across the cluster.
//
// Workers check the shared wall-clock deadline before issuing and again
// before merging, so an expired worker contributes nothing. Merging keys by
// post id and keeps the entry with the greatest created_at on collision.
func (n *Node) listTitles(body string) response {
	limit := record.ParseForm(body).Int("limit", 100)
	if limit < 1 {
		limit = 1
	}

	local, err := n.store.LocalTitles(limit)
	if err != nil {
		return failure(500, "db")
	}

	merged := make(map[string]record.Post, len(local))
	for _, p := range local {
		merged[p.ID] = p
	}

	if !n.cfg.SingleNode && n.cfg.ListTitlesRemoteEnabled {
		perPeerLimit := n.cfg.ListTitlesRemotePerPeerLimit
		if perPeerLimit > limit {
			perPeerLimit = limit
		}
		if perPeerLimit < 1 {
			perPeerLimit = 1
		}

		budget := time.Duration(n.cfg.ListTitlesRemoteBudgetMs) * time.Millisecond
		deadline := time.Now().Add(budget)
		expired := func() bool {
			return budget > 0 && !time.Now().Before(deadline)
		}
		timeout := n.cfg.ListTitlesRemoteTimeout()
		reqBody := record.BuildForm([]record.Pair{{Key: "limit", Value: strconv.Itoa(perPeerLimit)}})

		var mergeMu sync.Mutex
		var wg sync.WaitGroup

		for _, peer := range n.reg.Peers() {
			peer := peer
			wg.Add(1)
			go func() {
				defer wg.Done()
				if expired() {
					return
				}

				status, out, ok := n.call(peer, "/internal/post/titles", reqBody, timeout)
				ok = ok && status == 200
				n.live.Store(peer, ok)
				if !ok || expired() {
					return
				}

				f := record.ParseForm(out)
				if f["ok"] != "1" {
					return
				}
				count := f.Int("count", 0)

				mergeMu.Lock()
				defer mergeMu.Unlock()
				for i := 0; i < count; i++ {
					k := strconv.Itoa(i)
					id := f["id"+k]
					if id == "" {
						continue
					}
					p := record.Post{
						ID:        id,
						AccountID: f["account_id"+k],
						Title:     f["title"+k],
						CreatedAt: f.Int64("created_at"+k, 0),
					}
					if prev, ok := merged[id]; !ok || p.CreatedAt > prev.CreatedAt {
						merged[id] = p
					}
				}
			}()
		}
		wg.Wait()
	}

	items := make([]record.Post, 0, len(merged))
	for _, p := range merged {
		items = append(items, p)
	}
	storage.SortTitles(items)
	if len(items) > limit {
		items = items[:limit]
	}

	return response{200, titlesBody(items)}
}

// listTitlesInternal handles /internal/post/titles: the local scan only, in
// the same payload format.
func (n *Node) listTitlesInternal(body string) response {
	limit := record.ParseForm(body).Int("limit", 100)
	if limit < 1 {
		limit = 1
	}

	items, err := n.store.LocalTitles(limit)
	if err != nil {
		return failure(500, "db")
	}
	return response{200, titlesBody(items)}
}

// titlesBody serializes a title page: ok, count, then id<i>, account_id<i>,
// title<i>, created_at<i> for each entry.
func titlesBody(items []record.Post) string {
	pairs := make([]record.Pair, 0, 2+4*len(items))
	pairs = append(pairs,
		record.Pair{Key: "ok", Value: "1"},
		record.Pair{Key: "count", Value: strconv.Itoa(len(items))},
	)
	for i, p := range items {
		k := strconv.Itoa(i)
		pairs = append(pairs,
			record.Pair{Key: "id" + k, Value: p.ID},
			record.Pair{Key: "account_id" + k, Value: p.AccountID},
			record.Pair{Key: "title" + k, Value: p.Title},
			record.Pair{Key: "created_at" + k, Value: strconv.FormatInt(p.CreatedAt, 10)},
		)
	}
	return record.BuildForm(pairs)
}
