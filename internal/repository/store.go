package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a unit of work can span several collections.
type Store struct {
	db *gorm.DB

	Markets  MarketRepository
	Users    UserRepository
	Products ProductRepository
	Reports  PriceReportRepository
}

// NewStore builds GORM-backed repositories sharing db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Markets:  NewMarketRepository(db),
		Users:    NewUserRepository(db),
		Products: NewProductRepository(db),
		Reports:  NewPriceReportRepository(db),
	}
}

// WithTransaction executes fn within a database transaction. The Store passed to
// fn is bound to the transaction; returning an error rolls every write back.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}
