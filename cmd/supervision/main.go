package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Freeeeeet/supervision/internal/app"
	"github.com/Freeeeeet/supervision/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type deps struct {
	cfg       *config.Config
	logger    *zap.Logger
	container *app.Container
}

// withContainer загружает конфиг, логгер и контейнер для подкоманды
func withContainer(cmd *cobra.Command, fn func(rt *deps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	container, err := app.NewContainer(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return err
	}
	defer container.Close()

	if err := fn(&deps{cfg: cfg, logger: logger, container: container}); err != nil {
		logger.Error("Command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "supervision",
		Short:         "Postgraduate supervision workflows",
		SilenceUsage:  true,
	}
	root.AddCommand(newMigrateCmd(), newAbstractCmd(), newBotCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	run := func(fn func(ctx context.Context, m *app.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(rt *deps) error {
				m, err := app.NewMigrator(rt.container.Pool, rt.logger)
				if err != nil {
					return err
				}
				defer m.Close()
				return fn(cmd.Context(), m)
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(func(ctx context.Context, m *app.Migrator) error { return m.Up(ctx) }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE:  run(func(ctx context.Context, m *app.Migrator) error { return m.Down(ctx) }),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(func(ctx context.Context, m *app.Migrator) error {
					v, err := m.Version(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), v)
					return nil
				})(cmd, args)
			},
		},
	)
	return cmd
}

func newAbstractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abstract",
		Short: "Manage request abstracts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "retry <request-id>",
		Short: "Re-run abstract extraction for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id %q: %w", args[0], err)
			}
			return withContainer(cmd, func(rt *deps) error {
				abs, err := rt.container.Abstracts.RetryExtraction(cmd.Context(), requestID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", abs.ExtractionStatus)
				if abs.ExtractionError != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", abs.ExtractionError)
				}
				return nil
			})
		},
	})
	return cmd
}

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(rt *deps) error {
				ctrl, err := rt.container.BotController()
				if err != nil {
					return err
				}
				if err := ctrl.RegisterHandlers(cmd.Context()); err != nil {
					return err
				}
				return ctrl.Start(cmd.Context())
			})
		},
	}
}
