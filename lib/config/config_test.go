package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Default()

	if c.NodeID != "n1" || c.Port != 4000 || c.DBPath != "kvs/db" {
		t.Fatalf("identity defaults: %+v", c)
	}
	if c.RPCTimeoutMs != 450 || c.ReadRemoteTimeoutMs != 300 || c.AliveProbeTimeoutMs != 120 {
		t.Fatalf("timeout defaults: %+v", c)
	}
	if c.AliveCacheMs != 250 || c.DeadCacheMs != 80 {
		t.Fatalf("cache defaults: %+v", c)
	}
	if !c.ListTitlesRemoteEnabled || c.ListTitlesRemotePerPeerLimit != 40 || c.ListTitlesRemoteBudgetMs != 350 {
		t.Fatalf("titles defaults: %+v", c)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("NODE_ID", "n7")
	t.Setenv("KVS_PORT", "4100")
	t.Setenv("DB_PATH", "/tmp/rkv")
	t.Setenv("CLUSTER_NODES", "n7@10.0.0.7:4100,n8@10.0.0.8:4100")
	t.Setenv("SINGLE_NODE", "true")
	t.Setenv("KVS_RPC_TIMEOUT_MS", "900")
	t.Setenv("KVS_LIST_TITLES_REMOTE_ENABLED", "0")

	c := FromEnv()
	if c.NodeID != "n7" || c.Port != 4100 || c.DBPath != "/tmp/rkv" {
		t.Fatalf("identity: %+v", c)
	}
	if !c.SingleNode {
		t.Fatalf("SINGLE_NODE not honored")
	}
	if c.RPCTimeoutMs != 900 {
		t.Fatalf("rpc timeout: %+v", c)
	}
	if c.ListTitlesRemoteEnabled {
		t.Fatalf("titles enabled flag not honored")
	}
	// unset knobs keep their defaults
	if c.ReadRemoteTimeoutMs != 300 {
		t.Fatalf("read timeout default lost: %+v", c)
	}
}

func TestLowercaseSingleNodeWins(t *testing.T) {
	t.Setenv("SINGLE_NODE", "true")
	t.Setenv("single_node", "false")

	if FromEnv().SingleNode {
		t.Fatal("lowercase single_node did not take precedence")
	}
}

func TestBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("KVS_PORT", "not-a-number")
	t.Setenv("KVS_ALIVE_CACHE_MS", "")

	c := FromEnv()
	if c.Port != 4000 || c.AliveCacheMs != 250 {
		t.Fatalf("fallbacks not applied: %+v", c)
	}
}

func TestTimeoutFallbacks(t *testing.T) {
	c := Default()
	c.RPCTimeoutMs = 0
	if c.RPCTimeout() != 450*time.Millisecond {
		t.Fatalf("RPCTimeout fallback = %v", c.RPCTimeout())
	}

	c.ReadRemoteTimeoutMs = 0
	if c.ReadRemoteTimeout() != 450*time.Millisecond {
		t.Fatalf("ReadRemoteTimeout fallback = %v", c.ReadRemoteTimeout())
	}

	c.RPCTimeoutMs = 200
	if c.ReadRemoteTimeout() != 200*time.Millisecond {
		t.Fatalf("ReadRemoteTimeout should follow the rpc timeout")
	}

	c.AliveProbeTimeoutMs = 0
	if c.AliveProbeTimeout() != 200*time.Millisecond {
		t.Fatalf("AliveProbeTimeout fallback = %v", c.AliveProbeTimeout())
	}
}
