package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pricewatch/internal/model"
)

// MarketRepository defines market persistence operations.
type MarketRepository interface {
	Create(ctx context.Context, market *model.Market) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Market, error)
	FindByName(ctx context.Context, name string) (*model.Market, error)
	List(ctx context.Context) ([]model.Market, error)
}

type marketRepository struct {
	db *gorm.DB
}

// NewMarketRepository creates a new market repository.
func NewMarketRepository(db *gorm.DB) MarketRepository {
	return &marketRepository{db: db}
}

func (r *marketRepository) Create(ctx context.Context, market *model.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

func (r *marketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Market, error) {
	var market model.Market
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&market).Error; err != nil {
		return nil, err
	}
	return &market, nil
}

func (r *marketRepository) FindByName(ctx context.Context, name string) (*model.Market, error) {
	var market model.Market
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&market).Error; err != nil {
		return nil, err
	}
	return &market, nil
}

// List returns every market ordered by name.
func (r *marketRepository) List(ctx context.Context) ([]model.Market, error) {
	var markets []model.Market
	if err := r.db.WithContext(ctx).Order("name").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}
