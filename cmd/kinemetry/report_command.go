package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kinemetry/internal/report"
	"kinemetry/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report <session-id>",
		Short: "Render the stored report for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			row, err := resolveSession(cmd, st, args[0])
			if err != nil {
				return err
			}

			patterns, err := st.SessionPatterns(cmd.Context(), row.ID)
			if err != nil {
				return err
			}
			reps, err := st.SessionReps(cmd.Context(), row.ID)
			if err != nil {
				return err
			}
			feedback, err := st.SessionFeedback(cmd.Context(), row.ID)
			if err != nil {
				return err
			}

			renderer := report.NewRenderer(cmd.OutOrStdout())
			return renderer.Session(row, patterns, reps, feedback)
		},
	}
}

// resolveSession accepts a full session UUID or a unique prefix.
func resolveSession(cmd *cobra.Command, st *store.Store, id string) (*store.SessionRow, error) {
	id = strings.TrimSpace(id)
	row, err := st.GetSession(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	rows, err := st.ListSessions(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *store.SessionRow
	for i := range rows {
		if strings.HasPrefix(rows[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("session prefix %q is ambiguous", id)
			}
			match = &rows[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no session %q", id)
	}
	return match, nil
}
