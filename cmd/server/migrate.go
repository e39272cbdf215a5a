package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pgstore "paddock/internal/championship/store/postgres"
	"paddock/internal/platform/config"
	"paddock/internal/platform/logger"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema and re-sync id counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Ledger.Store != config.StorePostgres {
				return fmt.Errorf("migrate requires the postgres store, configured store is %q", cfg.Ledger.Store)
			}
			return runMigrate(cmd.Context(), cfg)
		},
	}
}

// runMigrate applies the schema first so the redis sync, when configured,
// reads from existing tables.
func runMigrate(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	migrateCfg := cfg
	migrateCfg.Ledger.IDAllocator = config.AllocatorStore
	b, err := openStore(ctx, migrateCfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	store := b.store.(*pgstore.Store)
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if err := pgstore.NewSequences(b.db).Sync(ctx); err != nil {
		return fmt.Errorf("sync id_sequences: %w", err)
	}
	log.InfoContext(ctx, "schema applied")

	if cfg.Ledger.IDAllocator == config.AllocatorRedis {
		rb, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		rb.close()
		log.InfoContext(ctx, "redis id counters synced")
	}
	return nil
}
