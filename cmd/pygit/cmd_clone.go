package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pygit/pkg/wire"
)

func newCloneCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "clone <url> <dir>",
		Short: "Clone a repository from a pygit:// remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL, dir := args[0], args[1]

			addr, repoName, err := parseRemoteURL(rawURL)
			if err != nil {
				return err
			}

			client := wire.NewClient(addr, repoName)
			client.Timeout = timeout
			if _, err := client.Clone(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cloned %s into %s\n", rawURL, dir)
			newLogger("clone").Info("cloned repository", zap.String("url", rawURL), zap.String("dir", dir))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", wire.DefaultTimeout, "network round-trip timeout")
	return cmd
}
