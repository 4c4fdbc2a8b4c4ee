package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pygit/pkg/repo"
)

func newCheckoutCmd() *cobra.Command {
	var createBranch bool

	cmd := &cobra.Command{
		Use:   "checkout [-b] <name>",
		Short: "Switch the working tree to a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := args[0]

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			if err := r.Checkout(branch, createBranch); err != nil {
				return err
			}

			if createBranch {
				fmt.Fprintf(cmd.OutOrStdout(), "switched to new branch %q\n", branch)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "switched to branch %q\n", branch)
			}
			newLogger("checkout").Info("switched branch", zap.String("branch", branch), zap.Bool("created", createBranch))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create the branch at the current HEAD first")
	return cmd
}
