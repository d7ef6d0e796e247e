// Command seed loads markets, accounts and shop catalogues into the database
// from YAML files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/internal/config"
	"pricewatch/internal/db"
	"pricewatch/internal/logging"
	"pricewatch/internal/provision"
	"pricewatch/internal/repository"
	"pricewatch/internal/service"
)

// app carries the wiring shared by every subcommand.
type app struct {
	logger *zap.Logger
	db     *gorm.DB

	markets  service.MarketService
	users    service.UserService
	products service.ProductService
	store    *repository.Store
}

var seed app

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the pricewatch database",
	Long: `Load reference data into the pricewatch database.

Available subcommands:
  markets      - Create markets from a YAML file
  admin        - Create an administrator account
  shop-owners  - Create shop owners from a YAML file
  products     - Import a shop owner's catalogue from a YAML file
  reconcile    - Recompute every product's running average`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if seed.logger != nil {
			_ = seed.logger.Sync()
		}
	},
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	store := repository.NewStore(gormDB)
	policy := provision.NewPolicy(cfg.PlaceholderEmailDomain)
	seed = app{
		logger:   logger,
		db:       gormDB,
		store:    store,
		markets:  service.NewMarketService(store.Markets),
		users:    service.NewUserService(store.Users, store.Markets, policy, logger),
		products: service.NewProductService(store, policy, nil, logger),
	}
	logger.Debug("seed connected", zap.String("db_driver", cfg.DBDriver), zap.String("command", cmd.Name()))
	return nil
}

func main() {
	rootCmd.AddCommand(marketsCmd, adminCmd, shopOwnersCmd, productsCmd, reconcileCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
