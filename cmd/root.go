package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replkv/rkv/cmd/client"
	"github.com/replkv/rkv/cmd/serve"
)

const (
	Version = "1.0.2"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rkv",
		Short: "replicated key-value node for accounts and posts",
		Long: fmt.Sprintf(`rkv (v%s)

A replicated key-value node that stores accounts and posts across a small
static cluster, replicates writes to peers and answers reads that missed
locally with a parallel first-success fan-out.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rkv v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCommands)
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
