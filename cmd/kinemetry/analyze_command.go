package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
	"kinemetry/internal/feedback"
	"kinemetry/internal/ingest"
	"kinemetry/internal/measurement"
	"kinemetry/internal/report"
	"kinemetry/internal/session"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var exerciseFlag string
	var sideFlag string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "analyze <recording.jsonl>",
		Short: "Run offline analysis over a recorded pose stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			side, err := parseSide(sideFlag)
			if err != nil {
				return err
			}
			ex, ok := exercise.Lookup(exerciseFlag, side)
			if !ok {
				return fmt.Errorf("unknown exercise %q (see `kinemetry exercises`)", exerciseFlag)
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			progress := !noProgress && isatty.IsTerminal(os.Stdout.Fd())
			src, err := ingest.OpenFile(args[0], ingest.FileOptions{Progress: progress}, logger)
			if err != nil {
				return err
			}
			defer src.Close()

			opts := session.OptionsFromConfig(cfg)
			opts.Mode = feedback.ModeOffline

			sess, err := session.New(ex, opts, logger)
			if err != nil {
				return err
			}
			if err := st.CreateSession(cmd.Context(), sess.ID(), ex.ID, string(opts.Mode), sess.StartedAt()); err != nil {
				return err
			}

			for {
				frame, err := src.Next(cmd.Context())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				res, err := sess.Tick(cmd.Context(), frame)
				if err != nil {
					return err
				}
				if res.Measurements != nil {
					if err := st.SaveTick(cmd.Context(), sess.ID(), res.Measurements); err != nil {
						return err
					}
				}
				if res.Event == measurement.EventRepComplete {
					kinds := make([]string, 0, len(res.RepKinds))
					for _, k := range res.RepKinds {
						kinds = append(kinds, string(k))
					}
					if err := st.SaveRep(cmd.Context(), sess.ID(), res.Reps, res.RepPeakDegrees, kinds, res.Timestamp); err != nil {
						return err
					}
				}
			}

			summary := sess.Stop()
			if summary == nil {
				return errors.New("session produced no summary")
			}
			if err := st.FinishSession(cmd.Context(), summary); err != nil {
				return err
			}

			stats := src.Stats()
			out := cmd.OutOrStdout()
			if stats.Malformed > 0 {
				fmt.Fprintf(out, "Skipped %d malformed frames (%d decoded)\n", stats.Malformed, stats.Decoded)
			}

			renderer := report.NewRenderer(out)
			if err := renderer.Summary(summary); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nStored as session %s\n", summary.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&exerciseFlag, "exercise", "e", "shoulder-abduction", "Exercise template ID")
	cmd.Flags().StringVarP(&sideFlag, "side", "s", "left", "Side being exercised (left or right)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func parseSide(value string) (anatomy.Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "left":
		return anatomy.SideLeft, nil
	case "right":
		return anatomy.SideRight, nil
	}
	return "", fmt.Errorf("side must be left or right, got %q", value)
}
