package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/internal/auth"
	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/logging"
	"pricewatch/internal/model"
	"pricewatch/internal/repository"
)

// DefaultResetTokenTTL applies when no TTL is configured.
const DefaultResetTokenTTL = time.Hour

// RegisterInput holds the fields for self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	ShopName string
	MarketID *uuid.UUID
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	// Logout revokes the refresh token and, when given, blacklists the access
	// token until it would have expired anyway.
	Logout(ctx context.Context, refreshToken string, access *auth.Claims) error
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// ForgotPassword issues a reset token. Unknown emails yield an empty token
	// and no error so callers cannot probe for accounts.
	ForgotPassword(ctx context.Context, email string) (token string, err error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	userRepo   repository.UserRepository
	marketRepo repository.MarketRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	resetTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	marketRepo repository.MarketRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	resetTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}
	return &authService{
		userRepo:   userRepo,
		marketRepo: marketRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		resetTTL:   resetTTL,
		logger:     logging.OrNop(logger),
		now:        time.Now,
	}
}

// Register creates a new user with hashed password.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if in.Role == model.RoleAdmin || !in.Role.Valid() {
		return nil, apperrors.Validation("role must be %s or %s", model.RoleUser, model.RoleShopOwner)
	}
	if strings.TrimSpace(in.Name) == "" || model.NormalizeEmail(in.Email) == "" {
		return nil, apperrors.Validation("name and email are required")
	}
	if len(in.Password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	// If error is not "record not found", return it (could be a database error)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	user := &model.User{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(in.Name),
		Email: model.NormalizeEmail(in.Email),
		Role:  in.Role,
	}
	if in.Role.CanOwnShop() {
		shop := strings.TrimSpace(in.ShopName)
		if shop != "" {
			user.ShopName = &shop
		}
		if in.MarketID != nil {
			if _, err := s.marketRepo.FindByID(ctx, *in.MarketID); err != nil {
				return nil, notFound(err, "Market")
			}
			marketID := *in.MarketID
			user.MarketID = &marketID
		}
	}
	if err := user.Validate(); err != nil {
		return nil, userWriteError(err)
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, auth.RefreshTokenExpiry); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token and returns a new access token. The
// role is re-read so a promotion or demotion takes effect on refresh.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUserID != claims.UserID {
		return "", apperrors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout invalidates a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return apperrors.ErrInvalidRefreshToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if access != nil && access.ID != "" && access.ExpiresAt != nil {
		if ttl := access.ExpiresAt.Sub(s.now()); ttl > 0 {
			if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
				return fmt.Errorf("blacklist access token: %w", err)
			}
		}
	}
	return nil
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	hash := hashResetToken(token)
	expires := s.now().Add(s.resetTTL)
	user.PasswordResetToken = &hash
	user.PasswordResetExpires = &expires
	user.Market = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info("password reset requested", zap.Stringer("user_id", user.ID))
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.Validation("password must be at least 8 characters")
	}
	user, err := s.userRepo.FindByResetToken(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return fmt.Errorf("find reset token: %w", err)
	}
	if user.PasswordResetExpires == nil || !s.now().Before(*user.PasswordResetExpires) {
		return apperrors.ErrInvalidResetToken
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	user.Market = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password reset", zap.Stringer("user_id", user.ID))
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
