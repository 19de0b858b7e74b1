package client

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/replkv/rkv/lib/record"
)

var (
	accountCreateCmd = &cobra.Command{
		Use:   "account-create [id] [name]",
		Short: "Create an account and replicate it to every peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, _ := cmd.Flags().GetString("password-hash")
			f, err := doPost("/account/create", []record.Pair{
				{Key: "id", Value: args[0]},
				{Key: "name", Value: args[1]},
				{Key: "password_hash", Value: hash},
			})
			if err != nil {
				return err
			}
			printForm(f, "id", "name")
			return nil
		},
	}

	accountGetCmd = &cobra.Command{
		Use:   "account-get [id]",
		Short: "Read an account, falling back to peers on a local miss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := doPost("/account/get", []record.Pair{{Key: "id", Value: args[0]}})
			if err != nil {
				return err
			}
			printForm(f, "id", "name", "password_hash", "created_at")
			return nil
		},
	}

	postCreateCmd = &cobra.Command{
		Use:   "post-create [account-id] [title] [content]",
		Short: "Create a post on its two ranked owners",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			pairs := []record.Pair{
				{Key: "account_id", Value: args[0]},
				{Key: "title", Value: args[1]},
				{Key: "content", Value: args[2]},
			}
			if id != "" {
				pairs = append(pairs, record.Pair{Key: "id", Value: id})
			}
			f, err := doPost("/post/create", pairs)
			if err != nil {
				return err
			}
			printForm(f, "id", "account_id", "title", "created_at")
			return nil
		},
	}

	postGetCmd = &cobra.Command{
		Use:   "post-get [id]",
		Short: "Read a post, racing all peers on a local miss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := doPost("/post/get", []record.Pair{{Key: "id", Value: args[0]}})
			if err != nil {
				return err
			}
			printForm(f, "id", "account_id", "title", "content", "created_at")
			return nil
		},
	}

	titlesCmd = &cobra.Command{
		Use:   "titles",
		Short: "List post titles in recency order, aggregated across the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			f, err := doPost("/post/titles", []record.Pair{{Key: "limit", Value: strconv.Itoa(limit)}})
			if err != nil {
				return err
			}

			count, _ := strconv.Atoi(f["count"])
			for i := 0; i < count; i++ {
				k := strconv.Itoa(i)
				fmt.Printf("%s  %s  %s (by %s)\n",
					f["created_at"+k], f["id"+k], f["title"+k], f["account_id"+k])
			}
			return nil
		},
	}
)

func init() {
	accountCreateCmd.Flags().String("password-hash", "", "Opaque password hash stored verbatim")
	postCreateCmd.Flags().String("id", "", "Explicit post id (generated when empty)")
	titlesCmd.Flags().Int("limit", 100, "Maximum number of titles")
}
