// Command wt is the worktrack CLI: a multi-tenant project and work
// tracking engine over a local SQLite database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/worktrack/worktrack/internal/config"
	"github.com/worktrack/worktrack/internal/service"
	"github.com/worktrack/worktrack/internal/storage/sqlite"
	"github.com/worktrack/worktrack/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	cfg   *config.Config
	store *sqlite.Store
	eng   *service.Engine

	rootCtx    context.Context
	rootCancel context.CancelFunc

	cmdSpan trace.Span
)

var rootCmd = &cobra.Command{
	Use:           "wt",
	Short:         "wt - project and work tracking",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := config.New()
		if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		if cfg.NoColor {
			color.NoColor = true
		}
		if err := telemetry.Init(rootCtx, "wt", Version); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: telemetry init failed: %v\n", err)
		}

		// One span per invocation; engine calls inherit it through the
		// command context.
		ctx, span := telemetry.Tracer("").Start(cmd.Context(), cmd.CommandPath(),
			trace.WithAttributes(attribute.String("wt.command", cmd.CommandPath())))
		cmdSpan = span
		cmd.SetContext(ctx)
		if counter, err := telemetry.Meter("").Int64Counter("wt.commands",
			metric.WithDescription("CLI commands executed"),
		); err == nil {
			counter.Add(ctx, 1, metric.WithAttributes(attribute.String("wt.command", cmd.CommandPath())))
		}

		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
		}
		store, err = sqlite.Open(rootCtx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database %s: %w", cfg.DBPath, err)
		}
		eng = service.New(store)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cmdSpan != nil {
			cmdSpan.End()
			cmdSpan = nil
		}
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: closing database: %v\n", err)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "database path (default ~/.worktrack/worktrack.db)")
	pf.String("actor", "", "acting user id (or WT_ACTOR)")
	pf.Bool("json", false, "machine-readable JSON output")
	pf.Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(
		companyCmd,
		userCmd,
		projectCmd,
		memberCmd,
		statusCmd,
		itemCmd,
		sprintCmd,
		ticketCmd,
		boardCmd,
		logCmd,
		seedCmd,
	)
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		FatalError("%v", err)
	}
}
