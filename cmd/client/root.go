package client

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/replkv/rkv/lib/config"
	"github.com/replkv/rkv/lib/record"
	rpcclient "github.com/replkv/rkv/rpc/client"
)

var (
	// ClientCommands represents the client command group
	ClientCommands = &cobra.Command{
		Use:               "client",
		Short:             "Issue requests against a running rkv node",
		PersistentPreRunE: bindFlags,
	}

	endpoint  string
	timeoutMs int
)

func init() {
	cobra.OnInitialize(config.LoadEnvFiles)

	ClientCommands.PersistentFlags().String("endpoint", "127.0.0.1:4000", "host:port of the target node")
	ClientCommands.PersistentFlags().Int("timeout-ms", 2000, "Deadline of one request")

	ClientCommands.AddCommand(accountCreateCmd)
	ClientCommands.AddCommand(accountGetCmd)
	ClientCommands.AddCommand(postCreateCmd)
	ClientCommands.AddCommand(postGetCmd)
	ClientCommands.AddCommand(titlesCmd)
	ClientCommands.AddCommand(benchCmd)
}

func bindFlags(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	endpoint = viper.GetString("endpoint")
	timeoutMs = viper.GetInt("timeout-ms")
	return nil
}

// doPost issues one call and fails loudly on transport errors.
func doPost(path string, pairs []record.Pair) (record.Form, error) {
	res := rpcclient.Post(endpoint, path, record.BuildForm(pairs), time.Duration(timeoutMs)*time.Millisecond)
	if res.Status == 0 {
		return nil, fmt.Errorf("request to %s failed (connect, timeout or malformed response)", endpoint)
	}

	f := record.ParseForm(res.Body)
	if f["ok"] != "1" {
		return f, fmt.Errorf("node answered %d: %s", res.Status, f["error"])
	}
	return f, nil
}

// printForm dumps selected response fields in a stable order.
func printForm(f record.Form, keys ...string) {
	for _, k := range keys {
		if v, ok := f[k]; ok {
			fmt.Printf("%s=%s\n", k, v)
		}
	}
}
