package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pygit/internal/ident"
	"pygit/internal/obslog"
	"pygit/pkg/objects"
	"pygit/pkg/remoteconfig"
	"pygit/pkg/repo"
	"pygit/pkg/wire"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "pygit",
		Short:         "A reduced, content-addressed version control system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newRemoteCmd())
	root.AddCommand(newPushCmd())
	root.AddCommand(newPullCmd())
	root.AddCommand(newCloneCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pygit:", err)
		os.Exit(exitCodeFor(err))
	}
}

func logLevel() string {
	if verbose {
		return "debug"
	}
	return "info"
}

func newLogger(op string) *zap.Logger {
	l, err := obslog.New(logLevel())
	if err != nil {
		l = obslog.Quiet()
	}
	return l.Operation(op)
}

// exitCodeFor maps the error taxonomy to process exit codes: 3 for
// internal, corruption and protocol errors, 1 for everything else.
// Usage errors (bad flags, wrong argument count) are not told apart from
// other failures and also exit with 1; no error yields exit code 2.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, repo.ErrIdentityMissing),
		errors.Is(err, repo.ErrEmptyCommit),
		errors.Is(err, repo.ErrDirtyWorkingTree),
		errors.Is(err, repo.ErrBranchExists),
		errors.Is(err, repo.ErrNonFastForward),
		errors.Is(err, wire.ErrNonFastForward),
		errors.Is(err, repo.ErrRefRaceLost),
		errors.Is(err, repo.ErrNotARepo),
		errors.Is(err, repo.ErrNoHead),
		errors.Is(err, repo.ErrRefNotFound),
		errors.Is(err, repo.ErrRepoLocked),
		errors.Is(err, remoteconfig.ErrInvalidURL),
		errors.Is(err, remoteconfig.ErrRemoteNotFound),
		errors.Is(err, ident.ErrMissing):
		return 1
	case errors.Is(err, objects.ErrCorrupt),
		errors.Is(err, objects.ErrObjectMissing),
		errors.Is(err, repo.ErrIndexMalformed),
		errors.Is(err, wire.ErrCorrupt),
		errors.Is(err, wire.ErrProtocol):
		return 3
	default:
		return 1
	}
}
