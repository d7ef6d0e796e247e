package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/logging"
	"pricewatch/internal/model"
	"pricewatch/internal/provision"
	"pricewatch/internal/repository"
)

// UpdateUserInput carries the fields an admin may change. Nil means unchanged.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *model.Role
	ShopName *string
	MarketID *uuid.UUID
	Password *string
}

// ShopOwnerRow is one line of a bulk shop-owner import.
type ShopOwnerRow struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	Email      string `json:"email" yaml:"email" validate:"required,email"`
	ShopName   string `json:"shop_name" yaml:"shop_name" validate:"required"`
	MarketName string `json:"market" yaml:"market" validate:"required"`
	// Password is generated when empty.
	Password string `json:"password,omitempty" yaml:"password" validate:"omitempty,min=8"`
}

// UserService exposes account administration.
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Update applies in and re-validates role-dependent fields.
	Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// CreateAdmin creates an administrator. Admins cannot self-register.
	CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error)
	// BulkCreateShopOwners creates shop owners row by row, skipping rows that
	// are invalid, name an unknown market or reuse an email.
	BulkCreateShopOwners(ctx context.Context, rows []ShopOwnerRow) (*BulkResult, error)
}

type userService struct {
	users    repository.UserRepository
	markets  repository.MarketRepository
	policy   *provision.Policy
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository, markets repository.MarketRepository, policy *provision.Policy, logger *zap.Logger) UserService {
	return &userService{
		users:    users,
		markets:  markets,
		policy:   policy,
		validate: NewValidator(),
		logger:   logging.OrNop(logger),
	}
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, apperrors.Validation("email cannot be empty")
		}
		user.Email = email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.Validation("invalid role %q", *in.Role)
		}
		user.Role = *in.Role
	}
	if in.ShopName != nil {
		shop := strings.TrimSpace(*in.ShopName)
		if shop == "" {
			user.ShopName = nil
		} else {
			user.ShopName = &shop
		}
	}
	if in.MarketID != nil {
		if *in.MarketID == uuid.Nil {
			user.MarketID = nil
		} else {
			if _, err := s.markets.FindByID(ctx, *in.MarketID); err != nil {
				return nil, notFound(err, "Market")
			}
			marketID := *in.MarketID
			user.MarketID = &marketID
		}
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, apperrors.Validation("password must be at least 8 characters")
		}
		user.Password = *in.Password
	}
	user.Market = nil

	if err := s.users.Update(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	return s.Get(ctx, user.ID)
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperrors.NotFound("User")
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return apperrors.Conflict("user %s still has reports or prices", id)
		default:
			return fmt.Errorf("delete user: %w", err)
		}
	}
	return nil
}

func (s *userService) CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	user := &model.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	}
	if user.Name == "" || model.NormalizeEmail(email) == "" {
		return nil, apperrors.Validation("name and email are required")
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	s.logger.Info("admin created", zap.Stringer("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

func (s *userService) BulkCreateShopOwners(ctx context.Context, rows []ShopOwnerRow) (*BulkResult, error) {
	markets, err := s.markets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	result := &BulkResult{Skipped: []SkippedRow{}}
	for i, row := range rows {
		n := i + 1
		skip := func(reason string) {
			result.skip(n, reason)
			s.logger.Warn("shop owner row skipped", zap.Int("row", n), zap.String("reason", reason))
		}

		row.Name = strings.TrimSpace(row.Name)
		row.Email = model.NormalizeEmail(row.Email)
		row.ShopName = strings.TrimSpace(row.ShopName)
		if err := s.validate.Struct(row); err != nil {
			skip(describeValidation(err))
			continue
		}
		market, err := s.policy.MatchMarket(row.MarketName, markets)
		if err != nil {
			skip(fmt.Sprintf("market %q: %v", row.MarketName, err))
			continue
		}
		password := row.Password
		if password == "" {
			if password, err = provision.RandomPassword(); err != nil {
				return result, err
			}
		}

		marketID := market.ID
		shopName := row.ShopName
		user := &model.User{
			Name:     row.Name,
			Email:    row.Email,
			Password: password,
			Role:     model.RoleShopOwner,
			ShopName: &shopName,
			MarketID: &marketID,
		}
		_, created, err := s.users.CreateIfAbsent(ctx, user)
		if err != nil {
			return result, fmt.Errorf("row %d: create shop owner: %w", n, err)
		}
		if !created {
			skip(fmt.Sprintf("email %s is already registered", row.Email))
			continue
		}
		result.Created++
	}
	return result, nil
}
