package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"offlineform/internal/api"
	"offlineform/internal/config"
	"offlineform/internal/connectivity"
	"offlineform/internal/storage"
	"offlineform/internal/transport"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		force  bool
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay queued submissions now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemon {
				return syncThroughDaemon(cmd, ctx)
			}
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				out := cmd.OutOrStdout()
				if !force && !connectivity.FromConfig(cfg).Online(cmd.Context()) {
					fmt.Fprintln(out, "Offline: queued submissions kept (use --force to replay anyway)")
					return nil
				}
				client := ctx.newClient(cfg, store)

				var sent, failed int
				opts := clientOptions(cfg)
				opts.OnSync = func(index, total int, resp *transport.Response) {
					sent++
					fmt.Fprintf(out, "[%d/%d] sent (HTTP %d)\n", index, total, resp.StatusCode)
				}
				opts.OnError = func(err error) {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "replay failed: %v\n", err)
				}

				attempted, err := client.Sync(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if !attempted {
					fmt.Fprintln(out, "Nothing to sync")
					return nil
				}
				fmt.Fprintf(out, "Sync complete: %d sent, %d failed\n", sent, failed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replay even when connectivity checks report offline")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Ask the running daemon to run the pass")
	return cmd
}

func syncThroughDaemon(cmd *cobra.Command, ctx *commandContext) error {
	return ctx.withDaemon(func(cfg *config.Config, client *api.Client) error {
		resp, err := client.Sync(cmd.Context())
		if err != nil {
			return daemonError(cfg, err)
		}
		out := cmd.OutOrStdout()
		if !resp.Attempted {
			fmt.Fprintf(out, "Daemon: nothing synced (%d pending)\n", resp.Pending)
			return nil
		}
		fmt.Fprintf(out, "Daemon: sync complete (%d pending)\n", resp.Pending)
		return nil
	})
}
