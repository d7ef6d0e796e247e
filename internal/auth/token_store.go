package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pricewatch/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
)

// ErrRefreshTokenNotFound is returned for unknown, revoked or expired refresh tokens.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type refreshTokenData struct {
	UserID uuid.UUID `json:"user_id"`
}

// TokenStore keeps refresh tokens and the access-token blacklist in Redis.
// Without a cache client it keeps them in process memory instead.
type TokenStore struct {
	cache *cache.Client

	mu     sync.Mutex
	memory map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store. c may be nil.
func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{
		cache:  c,
		memory: make(map[string]memoryEntry),
		now:    time.Now,
	}
}

// StoreRefreshToken stores a refresh token with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenData{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken returns the user a refresh token was issued to.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error) {
	data := s.get(ctx, refreshTokenKeyPrefix+tokenID)
	if data == nil {
		return uuid.Nil, ErrRefreshTokenNotFound
	}

	var tokenData refreshTokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal token data: %w", err)
	}
	if tokenData.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid user_id in token data")
	}
	return tokenData.UserID, nil
}

// DeleteRefreshToken removes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	return s.get(ctx, accessTokenKeyPrefix+tokenID) != nil, nil
}

func (s *TokenStore) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.cache != nil {
		return s.cache.Set(ctx, key, value, ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *TokenStore) get(ctx context.Context, key string) []byte {
	if s.cache != nil {
		data, _ := s.cache.Get(ctx, key)
		return data
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.memory[key]
	if !ok {
		return nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.memory, key)
		return nil
	}
	return entry.value
}

func (s *TokenStore) delete(ctx context.Context, key string) error {
	if s.cache != nil {
		return s.cache.Delete(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory, key)
	return nil
}
