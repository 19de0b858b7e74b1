// Package config holds the node configuration and its environment loading.
//
// Every knob can be set through the environment (optionally preloaded from
// an env file named by ENV_PATH) or through the serve command's flags; unset
// values fall back to the defaults below.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full set of node knobs.
type Config struct {
	NodeID       string
	Port         int
	DBPath       string
	ClusterNodes string
	SingleNode   bool

	RPCTimeoutMs                 int
	ReadRemoteTimeoutMs          int
	ListTitlesRemoteTimeoutMs    int
	ListTitlesRemoteBudgetMs     int
	ListTitlesRemotePerPeerLimit int
	ListTitlesRemoteEnabled      bool
	AliveCacheMs                 int
	DeadCacheMs                  int
	AliveProbeTimeoutMs          int
}

// Default returns the configuration with every knob at its default.
func Default() Config {
	return Config{
		NodeID:                       "n1",
		Port:                         4000,
		DBPath:                       "kvs/db",
		ClusterNodes:                 "n1@127.0.0.1:4000",
		SingleNode:                   false,
		RPCTimeoutMs:                 450,
		ReadRemoteTimeoutMs:          300,
		ListTitlesRemoteTimeoutMs:    220,
		ListTitlesRemoteBudgetMs:     350,
		ListTitlesRemotePerPeerLimit: 40,
		ListTitlesRemoteEnabled:      true,
		AliveCacheMs:                 250,
		DeadCacheMs:                  80,
		AliveProbeTimeoutMs:          120,
	}
}

// LoadEnvFiles preloads environment variables from the file named by
// ENV_PATH, or from .env files in the usual relative locations when ENV_PATH
// is unset. Variables already present in the process environment win.
func LoadEnvFiles() {
	if p := os.Getenv("ENV_PATH"); p != "" {
		_ = godotenv.Load(p)
		return
	}
	for _, p := range []string{".env", "../.env", "../../.env"} {
		_ = godotenv.Load(p)
	}
}

// FromEnv builds a configuration from the process environment on top of the
// defaults.
func FromEnv() Config {
	c := Default()
	c.NodeID = envStr("NODE_ID", c.NodeID)
	c.Port = envInt("KVS_PORT", c.Port)
	c.DBPath = envStr("DB_PATH", c.DBPath)
	c.ClusterNodes = envStr("CLUSTER_NODES", c.ClusterNodes)
	c.SingleNode = envBool("single_node", envBool("SINGLE_NODE", c.SingleNode))

	c.RPCTimeoutMs = envInt("KVS_RPC_TIMEOUT_MS", c.RPCTimeoutMs)
	c.ReadRemoteTimeoutMs = envInt("KVS_READ_REMOTE_TIMEOUT_MS", c.ReadRemoteTimeoutMs)
	c.ListTitlesRemoteTimeoutMs = envInt("KVS_LIST_TITLES_REMOTE_TIMEOUT_MS", c.ListTitlesRemoteTimeoutMs)
	c.ListTitlesRemoteBudgetMs = envInt("KVS_LIST_TITLES_REMOTE_BUDGET_MS", c.ListTitlesRemoteBudgetMs)
	c.ListTitlesRemotePerPeerLimit = envInt("KVS_LIST_TITLES_REMOTE_PER_PEER_LIMIT", c.ListTitlesRemotePerPeerLimit)
	c.ListTitlesRemoteEnabled = envBool("KVS_LIST_TITLES_REMOTE_ENABLED", c.ListTitlesRemoteEnabled)
	c.AliveCacheMs = envInt("KVS_ALIVE_CACHE_MS", c.AliveCacheMs)
	c.DeadCacheMs = envInt("KVS_DEAD_CACHE_MS", c.DeadCacheMs)
	c.AliveProbeTimeoutMs = envInt("KVS_ALIVE_PING_TIMEOUT_MS", c.AliveProbeTimeoutMs)
	return c
}

// RPCTimeout returns the default per-call deadline, falling back to 450 ms
// when the configured value is unusable.
func (c Config) RPCTimeout() time.Duration {
	ms := c.RPCTimeoutMs
	if ms <= 0 {
		ms = 450
	}
	return time.Duration(ms) * time.Millisecond
}

// ReadRemoteTimeout returns the deadline for remote point reads.
func (c Config) ReadRemoteTimeout() time.Duration {
	if c.ReadRemoteTimeoutMs > 0 {
		return time.Duration(c.ReadRemoteTimeoutMs) * time.Millisecond
	}
	return c.RPCTimeout()
}

// ListTitlesRemoteTimeout returns the per-peer deadline of the titles
// fan-out.
func (c Config) ListTitlesRemoteTimeout() time.Duration {
	if c.ListTitlesRemoteTimeoutMs > 0 {
		return time.Duration(c.ListTitlesRemoteTimeoutMs) * time.Millisecond
	}
	return c.RPCTimeout()
}

// AliveProbeTimeout returns the deadline of an explicit liveness ping.
func (c Config) AliveProbeTimeout() time.Duration {
	if c.AliveProbeTimeoutMs > 0 {
		return time.Duration(c.AliveProbeTimeoutMs) * time.Millisecond
	}
	return c.RPCTimeout()
}

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
