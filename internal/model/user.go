package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is the work factor used when hashing passwords.
const BcryptCost = 10

var (
	// ErrShopNameRequired is returned when a ShopOwner has no shop name.
	ErrShopNameRequired = errors.New("shop name is required for shop owners")
	// ErrMarketRequired is returned when a ShopOwner has no market.
	ErrMarketRequired = errors.New("market is required for shop owners")
)

// User is an account holder. ShopOwners additionally carry a shop name and a market.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;default:'User';index:idx_users_shop_role,priority:2"`
	ShopName     *string    `json:"shop_name,omitempty" gorm:"size:255;index:idx_users_shop_role,priority:1"`
	MarketID     *uuid.UUID `json:"market_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	PasswordResetToken   *string    `json:"-" gorm:"size:64;index"`
	PasswordResetExpires *time.Time `json:"-"`

	// Password is the plaintext to hash on the next save. Never persisted.
	Password string `json:"-" gorm:"-"`

	// Relations
	Market *Market `json:"market,omitempty" gorm:"foreignKey:MarketID"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave hashes a pending password and enforces the role-conditional fields.
// It runs on create and on every Save, so a role change is re-validated.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Password != "" {
		if err := u.SetPassword(u.Password); err != nil {
			return err
		}
	}
	if u.PasswordHash == "" {
		return errors.New("password is required")
	}
	return nil
}

// Validate checks the role-dependent invariants.
func (u *User) Validate() error {
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.Role == RoleShopOwner {
		if u.ShopName == nil || strings.TrimSpace(*u.ShopName) == "" {
			return ErrShopNameRequired
		}
		if u.MarketID == nil || *u.MarketID == uuid.Nil {
			return ErrMarketRequired
		}
	}
	return nil
}

// SetPassword replaces the stored hash and clears the pending plaintext.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// ShopNameValue returns the shop name or "".
func (u *User) ShopNameValue() string {
	if u.ShopName == nil {
		return ""
	}
	return *u.ShopName
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
