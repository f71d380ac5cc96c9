package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bind := strings.TrimSpace(address)
			if bind == "" {
				bind = cfg.Daemon.Bind
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get("http://" + bind + "/v1/status")
			if err != nil {
				return fmt.Errorf("connect to daemon at %s: %w (start it with `kinemetryd`)", bind, err)
			}
			defer resp.Body.Close()

			var status struct {
				Running        bool     `json:"running"`
				Bind           string   `json:"bind"`
				StorePath      string   `json:"store_path"`
				ActiveSessions []string `json:"active_sessions"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:          running (%s)\n", status.Bind)
			fmt.Fprintf(out, "Store:           %s\n", status.StorePath)
			fmt.Fprintf(out, "Active sessions: %d\n", len(status.ActiveSessions))
			for _, id := range status.ActiveSessions {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Daemon address (defaults to the configured bind)")
	return cmd
}
