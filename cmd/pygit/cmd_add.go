package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pygit/pkg/repo"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path|.>",
		Short: "Stage a file or directory for the next commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			if err := r.Add(args[0]); err != nil {
				return err
			}
			newLogger("add").Info("staged path", zap.String("path", args[0]))
			return nil
		},
	}
}
