package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"offlineform/internal/api"
	"offlineform/internal/config"
	"offlineform/internal/form"
	"offlineform/internal/preflight"
	"offlineform/internal/queue"
	"offlineform/internal/storage"
)

// bodyPreviewLimit bounds the body column of queue list tables.
const bodyPreviewLimit = 48

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage queued submissions",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var (
		output string
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued submissions in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := validateOutput(output)
			if err != nil {
				return err
			}
			if daemon {
				return ctx.withDaemon(func(cfg *config.Config, client *api.Client) error {
					resp, err := client.Queue(cmd.Context())
					if err != nil {
						return daemonError(cfg, err)
					}
					return printQueueList(cmd, *resp, format)
				})
			}
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				entries, _, err := queue.New(store, cfg.Queue.Key).Load(cmd.Context())
				if err != nil {
					return err
				}
				return printQueueList(cmd, api.QueueListResponse{Entries: api.FromEntries(entries)}, format)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json, or yaml")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "List the queue of the running daemon")
	return cmd
}

func printQueueList(cmd *cobra.Command, resp api.QueueListResponse, format string) error {
	switch format {
	case outputJSON:
		return writeJSON(cmd, resp)
	case outputYAML:
		return writeYAML(cmd, resp)
	}

	out := cmd.OutOrStdout()
	if len(resp.Entries) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return nil
	}
	table := renderTable(
		[]string{"#", "Method", "Action", "Body", "Queued"},
		buildQueueListRows(resp.Entries),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
		isTerminal(out),
	)
	fmt.Fprint(out, table)
	return nil
}

func buildQueueListRows(entries []api.QueueEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			form.NormalizeMethod(entry.Method),
			entry.Action,
			truncate(entry.Body, bodyPreviewLimit),
			entry.QueuedAt,
		})
	}
	return rows
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard every queued submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("queue clear discards unsent submissions; rerun with --yes to confirm")
			}
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				lock := flock.New(cfg.SyncLockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire sync lock: %w", err)
				}
				if !locked {
					return errors.New("a sync pass is in progress; try again once it finishes")
				}
				defer func() {
					_ = lock.Unlock()
				}()

				q := queue.New(store, cfg.Queue.Key)
				entries, _, err := q.Load(cmd.Context())
				if err != nil && !errors.Is(err, queue.ErrCorrupt) {
					return err
				}
				if _, err := q.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d queued submission(s)\n", len(entries))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm discarding the queue")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check queue database health and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				out := cmd.OutOrStdout()
				health, err := store.CheckHealth(cmd.Context())
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %d\n", health.SchemaVersion)
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				if err != nil {
					return fmt.Errorf("database health: %w", err)
				}
				keys, err := store.Keys(cmd.Context())
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					fmt.Fprintln(out, "Stored keys: none")
				} else {
					fmt.Fprintf(out, "Stored keys: %s\n", strings.Join(keys, ", "))
				}

				entries, _, loadErr := queue.New(store, cfg.Queue.Key).Load(cmd.Context())
				if loadErr != nil {
					fmt.Fprintf(out, "Queue record (%s): unreadable: %v\n", cfg.Queue.Key, loadErr)
				} else {
					fmt.Fprintf(out, "Queue record (%s): %d pending\n", cfg.Queue.Key, len(entries))
				}

				for _, result := range preflight.RunAll(cmd.Context(), cfg) {
					status := "ok"
					if !result.Passed {
						status = "FAIL"
					}
					fmt.Fprintf(out, "%s: %s %s\n", result.Name, status, strings.TrimSpace(result.Detail))
				}
				return loadErr
			})
		},
	}
}
