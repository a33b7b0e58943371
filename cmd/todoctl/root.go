package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/todosync/todosync-server/internal/di"
)

// globalFlags are forwarded to the server's config loader so the CLI and
// the server resolve the same data directory.
type globalFlags struct {
	dataDir  string
	dbDriver string
	dbDSN    string
	envFile  string
	verbose  bool
}

func (f *globalFlags) configArgs() []string {
	args := []string{"--env-file", f.envFile}
	if f.dataDir != "" {
		args = append(args, "--data-dir", f.dataDir)
	}
	if f.dbDriver != "" {
		args = append(args, "--db-driver", f.dbDriver)
	}
	if f.dbDSN != "" {
		args = append(args, "--db-dsn", f.dbDSN)
	}
	if !f.verbose {
		args = append(args, "--log-level", "warn")
	}
	return args
}

// container builds the server's DI container. The caller must shut it down.
func (f *globalFlags) container() *do.RootScope {
	return di.NewContainer(f.configArgs())
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "todoctl",
		Short: "Operator tools for a todosync server",
		Long: `todoctl works directly on a todosync data directory.

It opens the same database, search index and auth key as the server, so a
sqlite data directory must not be in use by a running server.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: ~/.todosync or DATA_DIR)")
	pf.StringVar(&flags.dbDriver, "db-driver", "", "database driver: sqlite or postgres")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "PostgreSQL connection string")
	pf.StringVar(&flags.envFile, "env-file", ".env", "path to .env file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "show server logs")

	rootCmd.AddCommand(
		newTokenCmd(flags),
		newDefaultsCmd(flags),
		newSeedCmd(flags),
		newStatsCmd(flags),
		newReindexCmd(flags),
	)
	return rootCmd
}
