package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"offlineform/internal/api"
	"offlineform/internal/config"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDaemon(func(cfg *config.Config, client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return daemonError(cfg, err)
				}
				return printStatus(cmd, status, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw status as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, status *api.DaemonStatus, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, status)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon running: %s (pid %d)\n", yesNo(status.Running), status.PID)
	fmt.Fprintf(out, "Online: %s\n", yesNo(status.Online))
	fmt.Fprintf(out, "Pending submissions: %d\n", status.Pending)
	fmt.Fprintf(out, "Queue key: %s\n", status.QueueKey)
	fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)
	fmt.Fprintf(out, "Lock file: %s\n", status.LockFilePath)
	fmt.Fprintf(out, "Netlink monitor: %s\n", yesNo(status.Netlink))
	if status.LastSync != "" {
		fmt.Fprintf(out, "Last sync: %s\n", status.LastSync)
	}
	if status.LastError != "" {
		fmt.Fprintf(out, "Last error: %s\n", status.LastError)
	}
	return nil
}
