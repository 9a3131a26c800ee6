package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gymcore/internal/app"
	"gymcore/internal/config"
	"gymcore/internal/storage"
	"gymcore/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newRunserverCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runserver [port]",
		Short: "Start the HTTP server",
		Long:  "Start the HTTP server on PORT (or the given port) and stop gracefully on SIGINT/SIGTERM.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if p, err := strconv.Atoi(args[0]); err != nil || p < 1 || p > 65535 {
					return fmt.Errorf("invalid port %q", args[0])
				}
				settings.Port = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, settings)
		},
	}
}

func runServer(ctx context.Context, settings *config.Settings) error {
	gin.SetMode(settings.GinMode)
	version.PrintBanner(os.Stderr, string(settings.Profile))

	store, err := storage.NewStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv, err := app.NewServer(settings, store)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
