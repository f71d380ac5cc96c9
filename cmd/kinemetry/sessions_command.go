package main

import (
	"github.com/spf13/cobra"

	"kinemetry/internal/report"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return report.NewRenderer(cmd.OutOrStdout()).Sessions(rows)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (0 for all)")
	return cmd
}
