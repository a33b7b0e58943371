package main

import (
	"errors"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/todosync/todosync-server/internal/di/providers"
	"github.com/todosync/todosync-server/internal/service"
)

func newReindexCmd(flags *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reindex [user-id]",
		Short: "Rebuild the full-text search index",
		Long:  "Rebuild the search index for one user, or drop and rebuild it for every user with --all.",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			injector := flags.container()
			defer func() { _ = injector.Shutdown() }()

			indexHandle, err := do.Invoke[*providers.SearchIndexHandle](injector)
			if err != nil {
				return err
			}
			if indexHandle.Index == nil {
				return errors.New("search is disabled")
			}
			svc, err := do.Invoke[*service.SearchService](injector)
			if err != nil {
				return err
			}

			var n int
			if all {
				if err := indexHandle.Rebuild(); err != nil {
					return err
				}
				n, err = svc.ReindexAll(cmd.Context(), indexHandle.Index)
			} else {
				n, err = svc.ReindexOwner(cmd.Context(), indexHandle.Index, args[0])
			}
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d todos\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reindex every user")
	return cmd
}
