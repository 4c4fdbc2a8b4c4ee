package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pygit/pkg/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			branch := "HEAD"
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "on branch %s\n", branch)
			if len(entries) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			for _, e := range entries {
				switch e.State {
				case repo.StagedNew:
					fmt.Fprintf(out, "  %s %s\n", green("new file:"), e.Path)
				case repo.StagedModified:
					fmt.Fprintf(out, "  %s %s\n", green("modified:"), e.Path)
				case repo.UnstagedModified:
					fmt.Fprintf(out, "  %s %s\n", yellow("modified:"), e.Path)
				case repo.Deleted:
					fmt.Fprintf(out, "  %s %s\n", red("deleted:"), e.Path)
				case repo.Untracked:
					fmt.Fprintf(out, "  %s\n", e.Path)
				}
			}
			return nil
		},
	}
}
