package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pricewatch/internal/auth"
	apperrors "pricewatch/internal/errors"
	"pricewatch/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CreateIfAbsent(ctx context.Context, user *model.User) (*model.User, bool, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindShopOwnerByShopName(ctx context.Context, shopName string) (*model.User, error) {
	args := m.Called(ctx, shopName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockMarketRepository is a mock implementation of MarketRepository.
type MockMarketRepository struct {
	mock.Mock
}

func (m *MockMarketRepository) Create(ctx context.Context, market *model.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockMarketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Market), args.Error(1)
}

func (m *MockMarketRepository) FindByName(ctx context.Context, name string) (*model.Market, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Market), args.Error(1)
}

func (m *MockMarketRepository) List(ctx context.Context) ([]model.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Market), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newTestAuthService(users *MockUserRepository, markets *MockMarketRepository, tokens *MockTokenStore) AuthService {
	return NewAuthService(users, markets, auth.NewJWTService("test-secret"), tokens, time.Hour, nil)
}

func TestAuthService_Register(t *testing.T) {
	marketID := uuid.New()

	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository, *MockMarketRepository)
		expectedError error
		validation    bool
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Name: "Test User", Email: "test@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository, _ *MockMarketRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name: "shop owner registration",
			input: RegisterInput{
				Name: "Sani", Email: "sani@example.com", Password: "password123",
				Role: model.RoleShopOwner, ShopName: "Sani's Grains", MarketID: &marketID,
			},
			setupMock: func(m *MockUserRepository, mk *MockMarketRepository) {
				m.On("FindByEmail", mock.Anything, "sani@example.com").Return(nil, gorm.ErrRecordNotFound)
				mk.On("FindByID", mock.Anything, marketID).Return(&model.Market{ID: marketID}, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "user already exists",
			input: RegisterInput{Name: "Existing User", Email: "existing@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository, _ *MockMarketRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:       "admin cannot self-register",
			input:      RegisterInput{Name: "Root", Email: "root@example.com", Password: "password123", Role: model.RoleAdmin},
			setupMock:  func(*MockUserRepository, *MockMarketRepository) {},
			validation: true,
		},
		{
			name:  "shop owner without shop name",
			input: RegisterInput{Name: "Sani", Email: "sani@example.com", Password: "password123", Role: model.RoleShopOwner, MarketID: &marketID},
			setupMock: func(m *MockUserRepository, mk *MockMarketRepository) {
				m.On("FindByEmail", mock.Anything, "sani@example.com").Return(nil, gorm.ErrRecordNotFound)
				mk.On("FindByID", mock.Anything, marketID).Return(&model.Market{ID: marketID}, nil)
			},
			validation: true,
		},
		{
			name:       "short password",
			input:      RegisterInput{Name: "Test User", Email: "test@example.com", Password: "short"},
			setupMock:  func(*MockUserRepository, *MockMarketRepository) {},
			validation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)
			mockMarkets := new(MockMarketRepository)
			tt.setupMock(mockUsers, mockMarkets)

			service := newTestAuthService(mockUsers, mockMarkets, new(MockTokenStore))
			user, err := service.Register(context.Background(), tt.input)

			switch {
			case tt.expectedError != nil:
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			case tt.validation:
				assert.True(t, apperrors.IsValidation(err), "want validation error, got %v", err)
				assert.Nil(t, user)
			default:
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, tt.input.Name, user.Name)
				assert.NotEmpty(t, user.PasswordHash)
				assert.True(t, user.CheckPassword(tt.input.Password))
			}

			mockUsers.AssertExpectations(t)
			mockMarkets.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "test@example.com", Role: model.RoleUser}
	require.NoError(t, user.SetPassword("password123"))

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), user.ID, auth.RefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, _ *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(mRepo *MockUserRepository, _ *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockTokenStore)

			service := newTestAuthService(mockRepo, new(MockMarketRepository), mockTokenStore)
			accessToken, refreshToken, got, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.Equal(t, tt.email, got.Email)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshUsesCurrentRole(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	user := &model.User{ID: uuid.New(), Email: "sani@example.com", Role: model.RoleUser}
	tokenID, refresh, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	promoted := *user
	promoted.Role = model.RoleAdmin

	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenStore)
	mockTokens.On("GetRefreshToken", mock.Anything, tokenID).Return(user.ID, nil)
	mockRepo.On("FindByID", mock.Anything, user.ID).Return(&promoted, nil)

	service := NewAuthService(mockRepo, new(MockMarketRepository), jwtService, mockTokens, time.Hour, nil)
	access, err := service.RefreshToken(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestAuthService_RefreshRevoked(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	user := &model.User{ID: uuid.New(), Email: "sani@example.com"}
	tokenID, refresh, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	mockTokens := new(MockTokenStore)
	mockTokens.On("GetRefreshToken", mock.Anything, tokenID).Return(uuid.Nil, auth.ErrRefreshTokenNotFound)

	service := NewAuthService(new(MockUserRepository), new(MockMarketRepository), jwtService, mockTokens, time.Hour, nil)
	_, err = service.RefreshToken(context.Background(), refresh)
	assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)

	_, err = service.RefreshToken(context.Background(), "not-a-token")
	assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)
}

func TestAuthService_LogoutBlacklistsAccessToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	user := &model.User{ID: uuid.New(), Email: "sani@example.com"}
	tokenID, refresh, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	access := &auth.Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "access-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
		},
	}

	mockTokens := new(MockTokenStore)
	mockTokens.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)
	mockTokens.On("BlacklistAccessToken", mock.Anything, "access-1", mock.AnythingOfType("time.Duration")).Return(nil)

	service := NewAuthService(new(MockUserRepository), new(MockMarketRepository), jwtService, mockTokens, time.Hour, nil)
	require.NoError(t, service.Logout(context.Background(), refresh, access))
	mockTokens.AssertExpectations(t)
}

func TestAuthService_PasswordReset(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "sani@example.com", Role: model.RoleUser}
	require.NoError(t, user.SetPassword("password123"))

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "sani@example.com").Return(user, nil)
	mockRepo.On("Update", mock.Anything, user).Return(nil)

	svc := newTestAuthService(mockRepo, new(MockMarketRepository), new(MockTokenStore))
	token, err := svc.ForgotPassword(context.Background(), "sani@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, user.PasswordResetToken)
	assert.NotEqual(t, token, *user.PasswordResetToken, "only the hash is stored")

	mockRepo.On("FindByResetToken", mock.Anything, *user.PasswordResetToken).Return(user, nil)
	require.NoError(t, svc.ResetPassword(context.Background(), token, "newpassword1"))
	assert.True(t, user.CheckPassword("newpassword1"))
	assert.Nil(t, user.PasswordResetToken)

	mockRepo.On("FindByResetToken", mock.Anything, mock.AnythingOfType("string")).Return(nil, gorm.ErrRecordNotFound)
	assert.Equal(t, apperrors.ErrInvalidResetToken, svc.ResetPassword(context.Background(), token, "another-pass"))
}

func TestAuthService_ForgotPasswordUnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestAuthService(mockRepo, new(MockMarketRepository), new(MockTokenStore))
	token, err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Empty(t, token)
}
