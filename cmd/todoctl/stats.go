package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/todosync/todosync-server/internal/service"
)

func newStatsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Print todo statistics for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector := flags.container()
			defer func() { _ = injector.Shutdown() }()

			svc, err := do.Invoke[*service.StatsService](injector)
			if err != nil {
				return err
			}

			stats, err := svc.GetTodoStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "total\t%d\n", stats.Total)
			fmt.Fprintf(w, "completed\t%d\n", stats.Completed)
			fmt.Fprintf(w, "pending\t%d\n", stats.Pending)
			fmt.Fprintf(w, "overdue\t%d\n", stats.Overdue)
			fmt.Fprintf(w, "due today\t%d\n", stats.DueToday)
			fmt.Fprintf(w, "due this week\t%d\n", stats.DueThisWeek)
			fmt.Fprintf(w, "completion rate\t%d%%\n", stats.CompletionRate)
			for _, p := range stats.ByPriority {
				fmt.Fprintf(w, "priority %s\t%d\n", p.Priority, p.Count)
			}
			for _, c := range stats.ByCategory {
				fmt.Fprintf(w, "category %s\t%d\n", c.Name, c.Count)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
