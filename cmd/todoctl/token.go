package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/todosync/todosync-server/internal/auth"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an access token for a user",
		Long:  "Mint a PASETO access token signed with the data directory's auth key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector := flags.container()
			defer func() { _ = injector.Shutdown() }()

			tokens, err := do.Invoke[*auth.TokenService](injector)
			if err != nil {
				return fmt.Errorf("load token service: %w", err)
			}

			token, err := tokens.GenerateAccessToken(args[0])
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
