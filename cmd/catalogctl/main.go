// Command catalogctl is the admin CLI: spreadsheet import/export, reference
// audit and session token issuing against the configured document store.
package main

import (
	"context"
	"fmt"
	"os"

	"labcatalog/internal/auth"
	"labcatalog/internal/common/logger"
	"labcatalog/internal/config"
	"labcatalog/internal/notify"
	"labcatalog/internal/repository"
	"labcatalog/internal/service"
	"labcatalog/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Administer the lab catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newImportCmd(), newExportCmd(), newRefsCmd(), newTokenCmd())
	return root
}

// catalog services opened by a command, acting as the system principal.
type catalog struct {
	ctx      context.Context
	docs     store.DocumentStore
	repo     *repository.Repository
	resolver *service.Resolver
	transfer *service.TransferService
	logger   *zap.Logger
}

func openCatalog(cmd *cobra.Command) (*catalog, error) {
	cfg := config.Load()
	log, err := logger.NewLogger(cfg.Log.Level, "console", "catalogctl")
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	ctx := auth.WithPrincipal(cmd.Context(), auth.System)

	docs, err := store.Open(ctx, cfg.Store.Backend, &cfg.Database, &cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	repo := repository.New(docs)
	resolver := service.NewResolver(repo, repo, log)
	return &catalog{
		ctx:      ctx,
		docs:     docs,
		repo:     repo,
		resolver: resolver,
		transfer: service.NewTransferService(repo, resolver, nil, notify.Nop{}, log),
		logger:   log,
	}, nil
}

func (c *catalog) Close() {
	if err := c.docs.Close(); err != nil {
		c.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = c.logger.Sync()
}
