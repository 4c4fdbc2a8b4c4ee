package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pygit/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [N]",
		Short: "Show commit history from HEAD",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				n, err := parsePositiveInt(args[0])
				if err != nil {
					return fmt.Errorf("invalid commit count %q: %w", args[0], err)
				}
				limit = n
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			head, err := r.ResolveRef("HEAD")
			if err != nil {
				return err
			}
			commits, err := r.Log(head, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			current := head
			for _, c := range commits {
				fmt.Fprintf(out, "commit %s\n", current)
				fmt.Fprintf(out, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
				fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.Author.Seconds, 0).Format("2006-01-02 15:04:05 -0700"))
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n\n", c.Message)
				if len(c.ParentIDs) == 0 {
					break
				}
				current = c.ParentIDs[0]
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 1<<30, "maximum number of commits to show")
	return cmd
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a positive integer")
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return 0, fmt.Errorf("must be greater than zero")
	}
	return n, nil
}
