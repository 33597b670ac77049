// Command notifier tracks students' daily activities and notifies their
// teacher and guardian once everything is recorded.
//
// Usage:
//
//	notifier serve
//	notifier run wake_up_check
//	notifier check <user_id>
//	notifier broadcast --role teacher --title "..." --body "..."
//	notifier migrate
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/app"
	"github.com/ykvlv/daily-report-notifier/internal/config"
	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/logger"
	"github.com/ykvlv/daily-report-notifier/internal/push"
	"github.com/ykvlv/daily-report-notifier/internal/store"
	"github.com/ykvlv/daily-report-notifier/internal/tracker"
)

func main() {
	root := &cobra.Command{
		Use:           "notifier",
		Short:         "Daily activity completion tracker and notifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), runCmd(), checkCmd(), broadcastCmd(), migrateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		// We intentionally ignore write errors to avoid shadowing the real cause.
		_, _ = os.Stderr.WriteString("notifier: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// withApp loads config, builds the logger and the app, and runs fn.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	return fn(ctx, a, log)
}

func serve(ctx context.Context) error {
	return withApp(ctx, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
		return a.Run(ctx)
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP triggers and run scheduled reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func runCmd() *cobra.Command {
	names := make([]string, 0, len(tracker.Jobs()))
	for _, j := range tracker.Jobs() {
		names = append(names, string(j))
	}
	return &cobra.Command{
		Use:       "run <job>",
		Short:     "Run one scheduled job now (" + strings.Join(names, ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := tracker.ParseJob(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				defer a.Close()
				rep, err := a.Tracker().RunJob(ctx, job)
				printJSON(rep)
				return err
			})
		},
	}
}

func checkCmd() *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "check <user_id>",
		Short: "Show today's progress of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				defer a.Close()
				var (
					rep tracker.Report
					err error
				)
				if notify {
					rep, err = a.Tracker().CheckCompletion(ctx, args[0], time.Now())
				} else {
					rep, err = a.Tracker().Progress(ctx, args[0], time.Now())
				}
				if err != nil {
					return err
				}
				printJSON(rep)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the completion notice if the day is complete")
	return cmd
}

func broadcastCmd() *cobra.Command {
	var role, title, body string
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a message to every user of a role (operator use only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			if body == "" {
				return fmt.Errorf("--body is required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				defer a.Close()
				res, err := a.Tracker().Broadcast(ctx, r, push.Message{
					Title: title,
					Body:  body,
					Data:  map[string]string{"type": "broadcast"},
				})
				printJSON(res)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "student, teacher or guardian")
	cmd.Flags().StringVar(&title, "title", "", "Notification title")
	cmd.Flags().StringVar(&body, "body", "", "Notification body")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			repo, err := store.OpenSQLite(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			fmt.Println("schema ready:", cfg.DBPath)
			return repo.Close()
		},
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
