package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/replkv/rkv/lib/config"
	"github.com/replkv/rkv/lib/db"
	enginepebble "github.com/replkv/rkv/lib/db/engines/pebble"
	"github.com/replkv/rkv/lib/node"
)

var (
	serveCmdConfig config.Config
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start a rkv node",
		Long: `Start a rkv node with the specified configuration. Every flag falls back to
its environment variable (NODE_ID, KVS_PORT, DB_PATH, CLUSTER_NODES,
SINGLE_NODE and the KVS_* timeout knobs), optionally preloaded from the file
named by ENV_PATH.

Note on write semantics: an account create that fails to reach every peer is
reported as 503 replicate_account even though the local row is already
durable; a later read served by this node will return the account.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(config.LoadEnvFiles)

	ServeCmd.PersistentFlags().String("node-id", "n1", "Unique identifier of this node inside the cluster")
	ServeCmd.PersistentFlags().Int("port", 4000, "TCP port the node listens on")
	ServeCmd.PersistentFlags().String("db-path", "kvs/db", "Directory of the embedded store (created if missing)")
	ServeCmd.PersistentFlags().String("cluster-nodes", "n1@127.0.0.1:4000", "Comma-separated cluster descriptor of id@host:port tokens")
	ServeCmd.PersistentFlags().Bool("single-node", false, "Run without peers; the cluster descriptor is ignored")

	ServeCmd.PersistentFlags().Int("rpc-timeout-ms", 450, "Default deadline of one peer RPC")
	ServeCmd.PersistentFlags().Int("read-remote-timeout-ms", 300, "Deadline of remote point reads")
	ServeCmd.PersistentFlags().Int("list-titles-remote-timeout-ms", 220, "Per-peer deadline of the titles fan-out")
	ServeCmd.PersistentFlags().Int("list-titles-remote-budget-ms", 350, "Wall-clock budget of the whole titles fan-out")
	ServeCmd.PersistentFlags().Int("list-titles-remote-per-peer-limit", 40, "Maximum entries requested from each peer")
	ServeCmd.PersistentFlags().Bool("list-titles-remote-enabled", true, "Aggregate titles across the cluster")
	ServeCmd.PersistentFlags().Int("alive-cache-ms", 250, "TTL of a cached alive verdict")
	ServeCmd.PersistentFlags().Int("dead-cache-ms", 80, "TTL of a cached dead verdict")
	ServeCmd.PersistentFlags().Int("alive-probe-timeout-ms", 120, "Deadline of an explicit liveness ping")

	ServeCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// processConfig resolves the node configuration: environment (with defaults)
// first, explicitly set flags on top.
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig = config.FromEnv()

	flags := cmd.Flags()
	if flags.Changed("node-id") {
		serveCmdConfig.NodeID = viper.GetString("node-id")
	}
	if flags.Changed("port") {
		serveCmdConfig.Port = viper.GetInt("port")
	}
	if flags.Changed("db-path") {
		serveCmdConfig.DBPath = viper.GetString("db-path")
	}
	if flags.Changed("cluster-nodes") {
		serveCmdConfig.ClusterNodes = viper.GetString("cluster-nodes")
	}
	if flags.Changed("single-node") {
		serveCmdConfig.SingleNode = viper.GetBool("single-node")
	}
	if flags.Changed("rpc-timeout-ms") {
		serveCmdConfig.RPCTimeoutMs = viper.GetInt("rpc-timeout-ms")
	}
	if flags.Changed("read-remote-timeout-ms") {
		serveCmdConfig.ReadRemoteTimeoutMs = viper.GetInt("read-remote-timeout-ms")
	}
	if flags.Changed("list-titles-remote-timeout-ms") {
		serveCmdConfig.ListTitlesRemoteTimeoutMs = viper.GetInt("list-titles-remote-timeout-ms")
	}
	if flags.Changed("list-titles-remote-budget-ms") {
		serveCmdConfig.ListTitlesRemoteBudgetMs = viper.GetInt("list-titles-remote-budget-ms")
	}
	if flags.Changed("list-titles-remote-per-peer-limit") {
		serveCmdConfig.ListTitlesRemotePerPeerLimit = viper.GetInt("list-titles-remote-per-peer-limit")
	}
	if flags.Changed("list-titles-remote-enabled") {
		serveCmdConfig.ListTitlesRemoteEnabled = viper.GetBool("list-titles-remote-enabled")
	}
	if flags.Changed("alive-cache-ms") {
		serveCmdConfig.AliveCacheMs = viper.GetInt("alive-cache-ms")
	}
	if flags.Changed("dead-cache-ms") {
		serveCmdConfig.DeadCacheMs = viper.GetInt("dead-cache-ms")
	}
	if flags.Changed("alive-probe-timeout-ms") {
		serveCmdConfig.AliveProbeTimeoutMs = viper.GetInt("alive-probe-timeout-ms")
	}

	if serveCmdConfig.NodeID == "" {
		return fmt.Errorf("node-id must not be empty")
	}
	if serveCmdConfig.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	n := node.New(serveCmdConfig, func(path string, cfs []string) (db.Engine, error) {
		return enginepebble.Open(path, cfs)
	}, logger.Sugar())

	if err := n.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Sugar().Infow("shutting down")
	n.Stop()
	return nil
}

// newLogger builds the process logger at the requested level.
func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
