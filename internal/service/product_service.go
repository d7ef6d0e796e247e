package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/internal/cache"
	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/logging"
	"pricewatch/internal/model"
	"pricewatch/internal/pricing"
	"pricewatch/internal/provision"
	"pricewatch/internal/repository"
)

const (
	productCacheTTL = 5 * time.Minute
	shopCacheTTL    = 5 * time.Minute
)

// CreateProductInput holds the fields for a new product.
type CreateProductInput struct {
	Name        string
	Category    string
	Description string
	MarketID    uuid.UUID
}

// ProductRow is one line of a bulk import.
type ProductRow struct {
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Category    string          `json:"category,omitempty" yaml:"category"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price" validate:"gt=0"`
	// MarketName defaults to the shop owner's market when empty.
	MarketName string `json:"market,omitempty" yaml:"market"`
}

// SkippedRow explains why a bulk row was not imported. Row is 1-based.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// BulkResult summarises a bulk operation.
type BulkResult struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Skipped []SkippedRow `json:"skipped"`
}

func (r *BulkResult) skip(row int, reason string) {
	r.Skipped = append(r.Skipped, SkippedRow{Row: row, Reason: reason})
}

// ShopProduct is one product a shop sells, priced by that shop's latest entry.
// It carries nothing derived from other shops' entries, so the cached view only
// changes when this shop appends.
type ShopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	LatestPrice decimal.Decimal `json:"latest_price"`
	LastUpdated time.Time       `json:"last_updated"`
}

// ShopDetails is the per-shop view of a shop owner's prices.
type ShopDetails struct {
	ShopOwnerID uuid.UUID     `json:"shop_owner_id"`
	Name        string        `json:"name"`
	ShopName    string        `json:"shop_name"`
	Market      *model.Market `json:"market,omitempty"`
	Products    []ShopProduct `json:"products"`
}

// ProductService covers the catalogue, direct price updates and shop views.
type ProductService interface {
	Create(ctx context.Context, in CreateProductInput) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	// AddPrice appends a shop owner's own price without going through a report.
	AddPrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal, shopOwnerID uuid.UUID) (*model.Product, error)
	// BulkImport applies AddPrice semantics per row, creating products that do
	// not exist in the row's market. Invalid rows are skipped, not fatal.
	BulkImport(ctx context.Context, shopOwnerID uuid.UUID, rows []ProductRow) (*BulkResult, error)
	// ShopDetails lists the products a shop owner has priced, each with that
	// shop's most recent price rather than the all-time average.
	ShopDetails(ctx context.Context, shopOwnerID uuid.UUID) (*ShopDetails, error)
	ReconcileAverages(ctx context.Context) (int, error)
}

type productService struct {
	store    *repository.Store
	policy   *provision.Policy
	cache    *cache.Client
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductService creates a new product service.
func NewProductService(store *repository.Store, policy *provision.Policy, cache *cache.Client, logger *zap.Logger) ProductService {
	return &productService{
		store:    store,
		policy:   policy,
		cache:    cache,
		validate: NewValidator(),
		logger:   logging.OrNop(logger),
	}
}

func (s *productService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("product name is required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	if _, err := s.store.Markets.FindByID(ctx, in.MarketID); err != nil {
		return nil, notFound(err, "Market")
	}

	product := &model.Product{
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		MarketID:    in.MarketID,
	}
	if err := s.store.Products.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("product %q already exists in this market", name)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	key := cache.ProductKey(id)
	var cached model.Product
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.store.Products.FindByIDWithHistory(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product")
	}
	_ = s.cache.SetJSON(ctx, key, product, productCacheTTL)
	return product, nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return s.store.Products.List(ctx, filter)
}

func (s *productService) AddPrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal, shopOwnerID uuid.UUID) (*model.Product, error) {
	if err := positivePrice(price); err != nil {
		return nil, err
	}
	owner, err := s.loadShopOwner(ctx, shopOwnerID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.Products.AppendPrice(ctx, productID, &model.PriceEntry{
		Price:       price,
		ShopOwnerID: owner.ID,
	})
	if err != nil {
		return nil, notFound(err, "Product")
	}
	s.invalidate(ctx, product.ID, owner.ID)
	return product, nil
}

func (s *productService) BulkImport(ctx context.Context, shopOwnerID uuid.UUID, rows []ProductRow) (*BulkResult, error) {
	owner, err := s.loadShopOwner(ctx, shopOwnerID)
	if err != nil {
		return nil, err
	}
	if owner.MarketID == nil {
		return nil, apperrors.Validation("Shop %q has no market; assign one manually", owner.ShopNameValue())
	}
	markets, err := s.store.Markets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	result := &BulkResult{Skipped: []SkippedRow{}}
	for i, row := range rows {
		n := i + 1
		row.Name = strings.TrimSpace(row.Name)
		if err := s.validate.Struct(row); err != nil {
			s.skipRow(result, n, describeValidation(err))
			continue
		}
		if err := positivePrice(row.Price); err != nil {
			s.skipRow(result, n, err.Error())
			continue
		}

		marketID := *owner.MarketID
		if strings.TrimSpace(row.MarketName) != "" {
			market, err := s.policy.MatchMarket(row.MarketName, markets)
			if err != nil {
				s.skipRow(result, n, fmt.Sprintf("market %q: %v", row.MarketName, err))
				continue
			}
			marketID = market.ID
		}

		category := strings.TrimSpace(row.Category)
		if category == "" {
			category = model.DefaultCategory
		}
		product, created, err := s.store.Products.FindOrCreate(ctx, &model.Product{
			Name:        row.Name,
			Category:    category,
			Description: strings.TrimSpace(row.Description),
			MarketID:    marketID,
		})
		if err != nil {
			return result, fmt.Errorf("row %d: resolve product: %w", n, err)
		}
		if _, err := s.store.Products.AppendPrice(ctx, product.ID, &model.PriceEntry{
			Price:       row.Price,
			ShopOwnerID: owner.ID,
		}); err != nil {
			return result, fmt.Errorf("row %d: append price: %w", n, err)
		}
		_ = s.cache.Delete(ctx, cache.ProductKey(product.ID))

		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	_ = s.cache.Delete(ctx, cache.ShopKey(owner.ID))

	s.logger.Info("bulk import finished",
		zap.Stringer("shop_owner_id", owner.ID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *productService) skipRow(result *BulkResult, row int, reason string) {
	result.skip(row, reason)
	s.logger.Warn("bulk row skipped", zap.Int("row", row), zap.String("reason", reason))
}

func (s *productService) ShopDetails(ctx context.Context, shopOwnerID uuid.UUID) (*ShopDetails, error) {
	key := cache.ShopKey(shopOwnerID)
	var cached ShopDetails
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	owner, err := s.store.Users.FindByID(ctx, shopOwnerID)
	if err != nil {
		return nil, notFound(err, "Shop")
	}
	if !owner.Role.CanOwnShop() {
		return nil, apperrors.NotFound("Shop")
	}
	products, err := s.store.Products.FindByShopOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list shop products: %w", err)
	}

	details := &ShopDetails{
		ShopOwnerID: owner.ID,
		Name:        owner.Name,
		ShopName:    owner.ShopNameValue(),
		Market:      owner.Market,
		Products:    make([]ShopProduct, 0, len(products)),
	}
	for _, p := range products {
		latest, ok := pricing.Latest(p.PriceHistory, func(e model.PriceEntry) bool {
			return e.ShopOwnerID == owner.ID
		})
		if !ok {
			continue
		}
		details.Products = append(details.Products, ShopProduct{
			ProductID:   p.ID,
			Name:        p.Name,
			Category:    p.Category,
			LatestPrice: latest.Price,
			LastUpdated: latest.RecordedAt,
		})
	}

	_ = s.cache.SetJSON(ctx, key, details, shopCacheTTL)
	return details, nil
}

func (s *productService) ReconcileAverages(ctx context.Context) (int, error) {
	fixed, err := s.store.Products.ReconcileAverages(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile averages: %w", err)
	}
	if fixed > 0 {
		s.logger.Warn("product averages reconciled", zap.Int("fixed", fixed))
	}
	return fixed, nil
}

// loadShopOwner returns the user if it exists and may own a shop.
func (s *productService) loadShopOwner(ctx context.Context, id uuid.UUID) (*model.User, error) {
	owner, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Shop owner")
	}
	if !owner.Role.CanOwnShop() {
		return nil, apperrors.Validation("user %s is not a shop owner", owner.ID)
	}
	return owner, nil
}

func (s *productService) invalidate(ctx context.Context, productID, shopOwnerID uuid.UUID) {
	_ = s.cache.Delete(ctx, cache.ProductKey(productID), cache.ShopKey(shopOwnerID))
}
