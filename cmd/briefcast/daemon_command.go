package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"briefcast/internal/daemon"
	"briefcast/internal/logging"
	"briefcast/internal/records"
	"briefcast/internal/tasks"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the background processing daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := records.Open(cfg)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}

			queue, err := tasks.NewQueue(store.DB())
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("open task queue: %w", err)
			}

			pool := daemon.AssemblePool(cfg, store, queue, logger)
			d, err := daemon.New(cfg, store, pool, logger)
			if err != nil {
				_ = store.Close()
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}

			<-runCtx.Done()
			logger.Info("shutting down", logging.String(logging.FieldComponent, "daemon"))
			d.Stop()
			return nil
		},
	}
}
