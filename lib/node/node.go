package node

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/replkv/rkv/lib/cluster"
	"github.com/replkv/rkv/lib/config"
	"github.com/replkv/rkv/lib/db"
	"github.com/replkv/rkv/lib/storage"
)

// acceptTick bounds how long the accept loop waits before rechecking the
// stop flag.
const acceptTick = 200 * time.Millisecond

// EngineOpener opens the embedded engine for a node. Injected so tests can
// run on the memory engine.
type EngineOpener func(path string, cfs []string) (db.Engine, error)

// Node is one rkv process.
type Node struct {
	cfg  config.Config
	log  *zap.SugaredLogger
	open EngineOpener

	reg   *cluster.Registry
	live  *cluster.Liveness
	store *storage.Store

	mu       sync.Mutex
	ln       net.Listener
	loopDone chan struct{}
	stopped  atomic.Bool
	started  bool
}

// New builds a node from its configuration. Nothing is opened until Start.
func New(cfg config.Config, open EngineOpener, log *zap.SugaredLogger) *Node {
	return &Node{
		cfg:  cfg,
		log:  log,
		open: open,
		reg:  cluster.NewRegistry(cfg.NodeID, cfg.Port, cfg.ClusterNodes, cfg.SingleNode),
		live: cluster.NewLiveness(cfg.AliveCacheMs, cfg.DeadCacheMs),
	}
}

// Start opens storage and launches the accept loop. It returns once the node
// is listening.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return fmt.Errorf("node: already started")
	}

	eng, err := n.open(n.cfg.DBPath, db.ColumnFamilies)
	if err != nil {
		return fmt.Errorf("node: open storage: %w", err)
	}
	n.store = storage.New(eng)

	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", n.cfg.Port))
	if err != nil {
		n.store.Close()
		n.store = nil
		return fmt.Errorf("node: listen: %w", err)
	}
	n.ln = ln
	n.loopDone = make(chan struct{})
	n.stopped.Store(false)
	n.started = true

	n.log.Infow("node started",
		"node", n.cfg.NodeID,
		"listen", ln.Addr().String(),
		"db_path", n.cfg.DBPath,
		"single_node", n.cfg.SingleNode,
		"cluster_nodes", n.cfg.ClusterNodes,
	)

	go n.serve(ln, n.loopDone)
	return nil
}

// Addr returns the bound listen address. Useful when the node was started
// on port 0.
func (n *Node) Addr() net.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ln == nil {
		return nil
	}
	return n.ln.Addr()
}

// Stop shuts the node down: flag, listener, accept loop, storage. Safe to
// call more than once.
func (n *Node) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started || n.stopped.Swap(true) {
		return
	}

	n.ln.Close()
	<-n.loopDone
	n.ln = nil

	// the store reference stays set, so a request still in flight reaches
	// the closed engine instead of a nil handle; what the engine does with
	// such a call is engine-specific (see db.Engine.Close)
	if err := n.store.Close(); err != nil {
		n.log.Warnw("storage close failed", "err", err)
	}
	n.started = false
}

// serve is the accept loop. The accept deadline doubles as a stop-flag poll
// interval, and closing the listener unblocks a pending accept immediately.
func (n *Node) serve(ln net.Listener, done chan struct{}) {
	defer close(done)

	tcpLn := ln.(*net.TCPListener)
	for !n.stopped.Load() {
		tcpLn.SetDeadline(time.Now().Add(acceptTick))

		conn, err := tcpLn.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if n.stopped.Load() {
				return
			}
			n.log.Debugw("accept failed", "err", err)
			continue
		}

		go n.handleConn(conn)
	}
}

// handleConn serves exactly one request and closes the connection.
func (n *Node) handleConn(conn net.Conn) {
	defer conn.Close()

	req, err := readRequest(conn)
	if err != nil {
		n.log.Debugw("request read failed", "err", err)
		return
	}
	resp := n.handle(req)
	if err := writeResponse(conn, resp); err != nil {
		n.log.Debugw("response write failed", "err", err)
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
