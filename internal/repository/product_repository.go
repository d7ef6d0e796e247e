package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricewatch/internal/model"
	"pricewatch/internal/pricing"
)

// ProductFilter narrows List results. Zero values match everything.
type ProductFilter struct {
	MarketID *uuid.UUID
	Category string
	Query    string
}

// ProductRepository defines product and price-history persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	// FindOrCreate returns the product with the same (name, market) as product,
	// inserting product when none exists.
	FindOrCreate(ctx context.Context, product *model.Product) (found *model.Product, created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByNameAndMarket(ctx context.Context, name string, marketID uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	// FindByShopOwner returns products with at least one entry by shopOwnerID,
	// with PriceHistory holding only that shop owner's entries.
	FindByShopOwner(ctx context.Context, shopOwnerID uuid.UUID) ([]model.Product, error)
	// AppendPrice records entry against the product and updates the running
	// sum, count and average in the same transaction.
	AppendPrice(ctx context.Context, productID uuid.UUID, entry *model.PriceEntry) (*model.Product, error)
	// ReconcileAverages recomputes derived stats from the full history and
	// returns how many products were corrected.
	ReconcileAverages(ctx context.Context) (int, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepository) FindOrCreate(ctx context.Context, product *model.Product) (*model.Product, bool, error) {
	res := r.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(product)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return product, true, nil
	}
	existing, err := r.FindByNameAndMarket(ctx, product.Name, product.MarketID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Market").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Preload("Market").
		Preload("PriceHistory", orderHistory).
		Preload("PriceHistory.ShopOwner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "shop_name", "market_id", "role")
		}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByNameAndMarket(ctx context.Context, name string, marketID uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Where("name = ? AND market_id = ?", name, marketID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Preload("Market")
	if filter.MarketID != nil {
		q = q.Where("market_id = ?", *filter.MarketID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var products []model.Product
	if err := q.Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByShopOwner(ctx context.Context, shopOwnerID uuid.UUID) ([]model.Product, error) {
	sub := r.db.WithContext(ctx).Model(&model.PriceEntry{}).
		Select("product_id").
		Where("shop_owner_id = ?", shopOwnerID)

	var products []model.Product
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Preload("PriceHistory", func(db *gorm.DB) *gorm.DB {
			return orderHistory(db.Where("shop_owner_id = ?", shopOwnerID))
		}).
		Order("name").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) AppendPrice(ctx context.Context, productID uuid.UUID, entry *model.PriceEntry) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The increment runs in the database and takes the row lock, so
		// concurrent appends to one product serialize here. Integer cents keep
		// the sum exact on backends that store decimals as floats.
		res := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Updates(map[string]interface{}{
				"price_sum_cents": gorm.Expr("price_sum_cents + ?", pricing.Cents(entry.Price)),
				"price_count":     gorm.Expr("price_count + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("increment price stats: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
			return err
		}
		product.AveragePrice = pricing.Mean(product.PriceSum(), product.PriceCount)
		if err := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Update("average_price", product.AveragePrice).Error; err != nil {
			return fmt.Errorf("update average price: %w", err)
		}

		entry.ProductID = productID
		entry.Position = product.PriceCount
		if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
			return fmt.Errorf("insert price entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ReconcileAverages(ctx context.Context) (int, error) {
	fixed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []model.Product
		if err := tx.Preload("PriceHistory").Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			stats := pricing.StatsOf(p.PriceHistory)
			cents := pricing.Cents(stats.Sum)
			avg := stats.Average()
			if stats.Count == p.PriceCount && cents == p.PriceSumCents &&
				avg.Equal(p.AveragePrice.Round(pricing.AverageScale)) {
				continue
			}
			if err := tx.Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
				"price_sum_cents": cents,
				"price_count":     stats.Count,
				"average_price":   avg,
			}).Error; err != nil {
				return fmt.Errorf("reconcile product %s: %w", p.ID, err)
			}
			fixed++
		}
		return nil
	})
	return fixed, err
}

func orderHistory(db *gorm.DB) *gorm.DB {
	return db.Order("recorded_at").Order("position")
}
