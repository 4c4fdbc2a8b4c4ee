package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pygit/internal/obslog"
	"pygit/pkg/repo"
	"pygit/pkg/wire"
)

func newServeCmd() *cobra.Command {
	var baseDir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repositories under a base directory over the wire protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolve := func(name string) (*repo.Repo, error) {
				return repo.Open(filepath.Join(baseDir, name))
			}

			logger, err := obslog.New(logLevel())
			if err != nil {
				logger = obslog.Quiet()
			}
			srv := wire.NewServer(addr, resolve, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", baseDir, addr)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", ".", "directory containing served repositories, one subdirectory per repo")
	cmd.Flags().StringVar(&addr, "addr", fmt.Sprintf(":%d", wire.DefaultPort), "address to listen on")
	return cmd
}
