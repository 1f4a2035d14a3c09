package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"species-catalog/internal/config"
	"species-catalog/internal/platform/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		envFile string
		cfg     config.Config
	)

	root := &cobra.Command{
		Use:           "species-catalog",
		Short:         "Catálogo de especies (API + detail dialog)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "archivo .env opcional")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		logger.Setup(logger.Options{
			Level:  logger.ParseLevel(cfg.LogLevel),
			Format: logger.ParseFormat(cfg.LogFormat),
			App:    cfg.AppName,
		})
		return nil
	}

	serve := serveCommand(&cfg)
	root.AddCommand(serve, migrateCommand(&cfg))

	// Sin subcomando => serve.
	root.RunE = serve.RunE
	return root
}
