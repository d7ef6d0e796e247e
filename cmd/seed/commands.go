package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/model"
	"pricewatch/internal/service"
)

var (
	seedFile       string
	adminEmail     string
	adminName      string
	adminPassword  string
	shopOwnerEmail string
)

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Create markets from a YAML file",
	Long: `Create every market listed in the file. Markets that already exist
are reported and left untouched.`,
	RunE: runMarkets,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an administrator account",
	RunE:  runAdmin,
}

var shopOwnersCmd = &cobra.Command{
	Use:   "shop-owners",
	Short: "Create shop owners from a YAML file",
	RunE:  runShopOwners,
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Import a shop owner's catalogue from a YAML file",
	Long: `Record a price for every row in the file on behalf of one shop owner.
Products missing from a market are created; rows without a market use the
shop owner's own market.`,
	RunE: runProducts,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute every product's running average from its price history",
	RunE:  runReconcile,
}

func init() {
	for _, cmd := range []*cobra.Command{marketsCmd, shopOwnersCmd, productsCmd} {
		cmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML seed file")
		_ = cmd.MarkFlagRequired("file")
	}

	adminCmd.Flags().StringVar(&adminEmail, "email", "", "administrator email")
	adminCmd.Flags().StringVar(&adminName, "name", "Administrator", "administrator display name")
	adminCmd.Flags().StringVar(&adminPassword, "password", "", "administrator password (min 8 characters)")
	_ = adminCmd.MarkFlagRequired("email")
	_ = adminCmd.MarkFlagRequired("password")

	productsCmd.Flags().StringVar(&shopOwnerEmail, "shop-owner-email", "", "email of the shop owner the prices belong to")
	_ = productsCmd.MarkFlagRequired("shop-owner-email")
}

func runMarkets(cmd *cobra.Command, _ []string) error {
	var markets []marketSeed
	if err := loadSeedFile(seedFile, &markets); err != nil {
		return err
	}

	created := 0
	for _, m := range markets {
		market, err := seed.markets.Create(cmd.Context(), service.CreateMarketInput{
			Name:        m.Name,
			Location:    m.Location,
			Description: m.Description,
			Latitude:    m.Latitude,
			Longitude:   m.Longitude,
		})
		if err != nil {
			if apperrors.IsConflict(err) {
				seed.logger.Info("market exists", zap.String("name", m.Name))
				continue
			}
			return fmt.Errorf("market %q: %w", m.Name, err)
		}
		created++
		seed.logger.Info("market created", zap.String("name", market.Name), zap.Stringer("id", market.ID))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "markets: %d created, %d already present\n", created, len(markets)-created)
	return nil
}

func runAdmin(cmd *cobra.Command, _ []string) error {
	user, err := seed.users.CreateAdmin(cmd.Context(), adminName, adminEmail, adminPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Email, user.ID)
	return nil
}

func runShopOwners(cmd *cobra.Command, _ []string) error {
	var rows []service.ShopOwnerRow
	if err := loadSeedFile(seedFile, &rows); err != nil {
		return err
	}
	result, err := seed.users.BulkCreateShopOwners(cmd.Context(), rows)
	if err != nil {
		return err
	}
	printBulk(cmd, "shop owners", result)
	return nil
}

func runProducts(cmd *cobra.Command, _ []string) error {
	var rows []service.ProductRow
	if err := loadSeedFile(seedFile, &rows); err != nil {
		return err
	}

	owner, err := seed.store.Users.FindByEmail(cmd.Context(), shopOwnerEmail)
	if err != nil {
		return fmt.Errorf("find shop owner %q: %w", shopOwnerEmail, err)
	}
	if owner.Role != model.RoleShopOwner {
		return fmt.Errorf("%s is not a shop owner", owner.Email)
	}

	result, err := seed.products.BulkImport(cmd.Context(), owner.ID, rows)
	if err != nil {
		return err
	}
	printBulk(cmd, "products", result)
	return nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	fixed, err := seed.products.ReconcileAverages(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reconcile: %d products repaired\n", fixed)
	return nil
}

func printBulk(cmd *cobra.Command, what string, result *service.BulkResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d created, %d updated, %d skipped\n", what, result.Created, result.Updated, len(result.Skipped))
	for _, s := range result.Skipped {
		fmt.Fprintf(out, "  row %d: %s\n", s.Row, s.Reason)
	}
}
