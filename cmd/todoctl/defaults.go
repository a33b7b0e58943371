package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/todosync/todosync-server/internal/service"
)

func newDefaultsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults <user-id>",
		Short: "Create the default categories for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector := flags.container()
			defer func() { _ = injector.Shutdown() }()

			categories, err := do.Invoke[*service.CategoryService](injector)
			if err != nil {
				return err
			}

			created, err := categories.CreateDefaultCategories(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, c := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, c.Name, c.Color)
			}
			return nil
		},
	}
}
