package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/daemon"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/server"
	"scribe/internal/speech"
	"scribe/internal/transcription"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, bind string) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if bind != "" {
		cfg.Paths.APIBind = bind
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	backend, err := speech.New(cfg, logger)
	if err != nil {
		logger.Error("speech backend unavailable", logging.Error(err))
		return err
	}
	pipeline, err := transcription.NewFromConfig(cfg, backend, logger)
	if err != nil {
		return err
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job ledger", logging.Error(err))
		return err
	}

	srv := server.New(pipeline, store, server.OptionsFromConfig(cfg, backend.Name()), logger)
	d, err := daemon.New(cfg, store, srv, logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
		}
		return err
	}

	<-signalCtx.Done()
	logger.Info("scribe shutting down")
	return nil
}
