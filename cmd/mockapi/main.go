package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"seostrategy-go/internal/mockapi"
	"seostrategy-go/pkg/logger"
)

type Application struct {
	addr   string
	secret string
	seed   []string
	debug  bool
}

func main() {
	app := &Application{}

	cmd := &cobra.Command{
		Use:           "seostrategy-mockapi",
		Short:         "Run an in-memory SEO strategy backend for local development",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&app.addr, "addr", "127.0.0.1:8000", "Listen address")
	cmd.Flags().StringVar(&app.secret, "secret", os.Getenv("MOCKAPI_JWT_SECRET"), "JWT signing secret (env: MOCKAPI_JWT_SECRET)")
	cmd.Flags().StringArrayVar(&app.seed, "user", nil, "Seed a verified account as username:email:password (repeatable)")
	cmd.Flags().BoolVar(&app.debug, "debug", false, "Enable debug logging")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (app *Application) Run(ctx context.Context) error {
	level := "info"
	if app.debug {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: "console"})
	logger.SetLogger(log)

	server := mockapi.New(mockapi.Config{Secret: app.secret, Logger: log})
	for _, spec := range app.seed {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("invalid --user %q, want username:email:password", spec)
		}
		if _, err := server.AddUser(parts[0], parts[1], parts[2], true); err != nil {
			return fmt.Errorf("seed user %s: %w", parts[0], err)
		}
		log.WithField("username", parts[0]).Info("Seeded account")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(app.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received, shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
