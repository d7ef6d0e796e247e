// Package testutil provides an in-memory SQLite store and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pricewatch/internal/db"
	"pricewatch/internal/model"
	"pricewatch/internal/repository"
)

// NewDB opens a fresh, migrated in-memory database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := db.NewSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

// NewStore returns a Store over a fresh in-memory database.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return repository.NewStore(NewDB(t))
}

// CreateMarket inserts a market named name.
func CreateMarket(t testing.TB, store *repository.Store, name string) *model.Market {
	t.Helper()
	market := &model.Market{Name: name, Location: name + " area"}
	require.NoError(t, store.Markets.Create(context.Background(), market))
	return market
}

// CreateUser inserts a plain user.
func CreateUser(t testing.TB, store *repository.Store, name, email string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: email, Password: "password123", Role: model.RoleUser}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

// CreateAdmin inserts an admin.
func CreateAdmin(t testing.TB, store *repository.Store, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "Admin", Email: email, Password: "password123", Role: model.RoleAdmin}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

// CreateShopOwner inserts a shop owner trading in market.
func CreateShopOwner(t testing.TB, store *repository.Store, shopName string, market *model.Market) *model.User {
	t.Helper()
	marketID := market.ID
	user := &model.User{
		Name:     shopName,
		Email:    uuid.NewString() + "@example.com",
		Password: "password123",
		Role:     model.RoleShopOwner,
		ShopName: &shopName,
		MarketID: &marketID,
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

// CreateProduct inserts an empty product in market.
func CreateProduct(t testing.TB, store *repository.Store, name string, market *model.Market) *model.Product {
	t.Helper()
	product := &model.Product{Name: name, Category: "Grains", MarketID: market.ID}
	require.NoError(t, store.Products.Create(context.Background(), product))
	return product
}

// Price parses a decimal literal.
func Price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
