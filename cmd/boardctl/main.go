package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/herbal-board/internal/app/bootstrap"
	"github.com/wolfman30/herbal-board/internal/archive"
	appconfig "github.com/wolfman30/herbal-board/internal/config"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// cli carries what the subcommands need; tests swap the storage and archive
// builders.
type cli struct {
	cfg         *appconfig.Config
	logger      *logging.Logger
	now         func() time.Time
	openStorage func(ctx context.Context) (*bootstrap.Storage, error)
	openArchive func(ctx context.Context) (*archive.Store, error)
}

func newCLI() *cli {
	cfg := appconfig.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, logging.FormatText)
	return &cli{
		cfg:    cfg,
		logger: logger,
		now:    cfg.Clock(),
		openStorage: func(ctx context.Context) (*bootstrap.Storage, error) {
			return bootstrap.BuildStorage(ctx, cfg, logger)
		},
		openArchive: func(ctx context.Context) (*archive.Store, error) {
			return bootstrap.BuildArchive(ctx, cfg, logger)
		},
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Operator tools for the herbal treatment board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfg.OwnerKey, "owner", c.cfg.OwnerKey, "Board owner key")
	root.AddCommand(c.scheduleCmd(), c.importLegacyCmd(), c.exportCmd())
	return root
}

func main() {
	_ = godotenv.Load()
	c := newCLI()
	if err := c.rootCmd().Execute(); err != nil {
		c.logger.Error("boardctl failed", "error", err)
		os.Exit(1)
	}
}
