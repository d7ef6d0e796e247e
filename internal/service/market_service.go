package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/model"
	"pricewatch/internal/repository"
)

// CreateMarketInput holds the fields for a new market.
type CreateMarketInput struct {
	Name        string
	Location    string
	Description string
	Latitude    *float64
	Longitude   *float64
}

// MarketService manages markets.
type MarketService interface {
	Create(ctx context.Context, in CreateMarketInput) (*model.Market, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Market, error)
	List(ctx context.Context) ([]model.Market, error)
}

type marketService struct {
	repo repository.MarketRepository
}

// NewMarketService creates a new market service.
func NewMarketService(repo repository.MarketRepository) MarketService {
	return &marketService{repo: repo}
}

func (s *marketService) Create(ctx context.Context, in CreateMarketInput) (*model.Market, error) {
	market := &model.Market{
		Name:        strings.TrimSpace(in.Name),
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if market.Name == "" {
		return nil, apperrors.Validation("market name is required")
	}
	if market.Location == "" {
		return nil, apperrors.Validation("market location is required")
	}
	if (market.Latitude == nil) != (market.Longitude == nil) {
		return nil, apperrors.Validation("coordinates need both lat and lng")
	}
	if market.Latitude != nil && (*market.Latitude < -90 || *market.Latitude > 90 || *market.Longitude < -180 || *market.Longitude > 180) {
		return nil, apperrors.Validation("coordinates are out of range")
	}

	if err := s.repo.Create(ctx, market); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("market %q already exists", market.Name)
		}
		return nil, fmt.Errorf("create market: %w", err)
	}
	return market, nil
}

func (s *marketService) Get(ctx context.Context, id uuid.UUID) (*model.Market, error) {
	market, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Market")
	}
	return market, nil
}

func (s *marketService) List(ctx context.Context) ([]model.Market, error) {
	return s.repo.List(ctx)
}
