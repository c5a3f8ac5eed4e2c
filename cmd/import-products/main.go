package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/storefrontlabs/storefront-backend/internal/catalog"
	"github.com/storefrontlabs/storefront-backend/pkg/config"
	"github.com/storefrontlabs/storefront-backend/pkg/db"
	"github.com/storefrontlabs/storefront-backend/pkg/logger"
	"github.com/storefrontlabs/storefront-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "import-products"})

	limit := flag.Int("limit", 0, "import at most N products (0 = all)")
	force := flag.Bool("force", false, "refresh products that already exist")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "import-products",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if *limit > 0 {
		cfg.Import.Limit = *limit
	}
	if *force {
		cfg.Import.Force = true
	}

	importer, err := catalog.NewImporter(catalog.NewRepository(dbClient.DB()), cfg.Import, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create importer", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"source": cfg.Import.SourceURL,
	})
	logg.Info(ctx, "starting product import")

	summary, err := importer.Run(ctx)
	if err != nil {
		logg.Error(ctx, "product import failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
	})
	logg.Info(ctx, "product import complete")
}
