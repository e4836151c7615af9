package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"offlineform/internal/api"
	"offlineform/internal/capture"
	"offlineform/internal/config"
	"offlineform/internal/storage"
	"offlineform/internal/transport"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		action  string
		method  string
		data    string
		fields  []string
		pageURL string
		direct  bool
		formID  string
		daemon  bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a form, queueing it when offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(action) == "" && strings.TrimSpace(pageURL) == "" {
				return errors.New("--action or --page-url is required")
			}
			if data != "" && len(fields) > 0 {
				return errors.New("--data and --field are mutually exclusive")
			}
			parsed, err := parseFieldFlags(fields)
			if err != nil {
				return err
			}
			req := api.SubmitRequest{
				Action:  action,
				Method:  method,
				Body:    data,
				Fields:  parsed,
				PageURL: pageURL,
			}
			f, err := req.Form()
			if err != nil {
				return fmt.Errorf("invalid submission: %w", err)
			}
			f.ID = formID

			if daemon {
				if direct {
					req.DirectSend = &direct
				}
				return submitToDaemon(cmd, ctx, req)
			}

			return ctx.withStore(func(cfg *config.Config, store *storage.Store) error {
				client := ctx.newClient(cfg, store)
				out := cmd.OutOrStdout()

				var (
					mu      sync.Mutex
					sendErr error
				)
				opts := clientOptions(cfg)
				opts.DirectSend = opts.DirectSend || direct
				opts.OnError = func(err error) {
					mu.Lock()
					sendErr = err
					mu.Unlock()
				}
				opts.OnlineSendCallback = func(resp *transport.Response) {
					fmt.Fprintf(out, "Sent (HTTP %d)\n", resp.StatusCode)
				}

				client.Init(opts, f)
				defer client.Release(f)

				outcome, err := client.Submit(cmd.Context(), f, pageURL)
				if err != nil {
					return err
				}
				client.Wait()

				switch outcome {
				case capture.OutcomeQueued:
					pending, err := client.Pending(cmd.Context(), opts)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Offline: submission queued (%d pending)\n", len(pending))
				case capture.OutcomePassthrough:
					fmt.Fprintln(out, "Online: submission not captured (use --direct to send it now)")
				case capture.OutcomeSent:
					mu.Lock()
					defer mu.Unlock()
					if sendErr != nil {
						return fmt.Errorf("direct send: %w", sendErr)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Form action URL (defaults to --page-url)")
	cmd.Flags().StringVar(&method, "method", "", "HTTP method (defaults to GET)")
	cmd.Flags().StringVar(&data, "data", "", "URL-encoded request body")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Form field as name=value (repeatable, kept in order)")
	cmd.Flags().StringVar(&pageURL, "page-url", "", "URL of the page hosting the form")
	cmd.Flags().BoolVar(&direct, "direct", false, "Send immediately when online instead of passing through")
	cmd.Flags().StringVar(&formID, "id", "", "Form element identifier")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Hand the submission to the running daemon")
	return cmd
}

func submitToDaemon(cmd *cobra.Command, ctx *commandContext, req api.SubmitRequest) error {
	return ctx.withDaemon(func(cfg *config.Config, client *api.Client) error {
		resp, err := client.Submit(cmd.Context(), req)
		if err != nil {
			return daemonError(cfg, err)
		}
		out := cmd.OutOrStdout()
		switch resp.Outcome {
		case capture.OutcomeQueued.String():
			fmt.Fprintf(out, "Daemon: submission queued (%d pending)\n", resp.Pending)
		case capture.OutcomeSent.String():
			fmt.Fprintln(out, "Daemon: submission sent")
		default:
			fmt.Fprintln(out, "Daemon: online, submission not captured (use --direct to send it now)")
		}
		return nil
	})
}

func parseFieldFlags(values []string) ([]api.Field, error) {
	fields := make([]api.Field, 0, len(values))
	for _, value := range values {
		name, val, ok := strings.Cut(value, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q: expected name=value", value)
		}
		fields = append(fields, api.Field{Name: name, Value: val})
	}
	return fields, nil
}
