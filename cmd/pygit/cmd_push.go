package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pygit/pkg/repo"
	"pygit/pkg/wire"
)

func newPushCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "push <remote> <branch>",
		Short: "Push a branch to a named remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remoteName, branch := args[0], args[1]

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			rawURL, err := remotesStore(r).URL(remoteName)
			if err != nil {
				return err
			}
			addr, repoName, err := parseRemoteURL(rawURL)
			if err != nil {
				return err
			}

			client := wire.NewClient(addr, repoName)
			client.Timeout = timeout
			if err := client.Push(r, branch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %s to %s\n", branch, remoteName)
			newLogger("push").Info("pushed branch", zap.String("remote", remoteName), zap.String("branch", branch))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", wire.DefaultTimeout, "network round-trip timeout")
	return cmd
}
