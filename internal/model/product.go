package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCategory is assigned to products created implicitly.
const DefaultCategory = "Uncategorized"

// PriceScale is the number of decimal places a recorded price carries.
const PriceScale = 2

// Product is a good sold in one market. Identity is (Name, MarketID).
// PriceSumCents and PriceCount are running totals of PriceHistory, the sum in
// minor units so the database increments it exactly. AveragePrice is always
// PriceSum() / PriceCount (0 when empty).
type Product struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name          string          `json:"name" gorm:"size:255;not null;uniqueIndex:idx_products_name_market,priority:1"`
	Category      string          `json:"category" gorm:"size:120;not null;index"`
	Description   string          `json:"description,omitempty" gorm:"type:text"`
	MarketID      uuid.UUID       `json:"market_id" gorm:"type:char(36);not null;uniqueIndex:idx_products_name_market,priority:2"`
	PriceSumCents int64           `json:"-" gorm:"not null;default:0"`
	PriceCount    int64           `json:"price_count" gorm:"not null;default:0"`
	AveragePrice  decimal.Decimal `json:"average_price" gorm:"type:decimal(30,8);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	Market       *Market      `json:"market,omitempty" gorm:"foreignKey:MarketID"`
	PriceHistory []PriceEntry `json:"price_history,omitempty" gorm:"foreignKey:ProductID"`
}

// PriceSum returns the running total of recorded prices.
func (p *Product) PriceSum() decimal.Decimal {
	return decimal.New(p.PriceSumCents, -PriceScale)
}

// BeforeCreate sets UUID before creating the record.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PriceEntry is one recorded price for a product, attributed to a shop owner.
type PriceEntry struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:char(36);not null;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	ShopOwnerID uuid.UUID       `json:"shop_owner_id" gorm:"type:char(36);not null;index"`
	RecordedAt  time.Time       `json:"timestamp" gorm:"not null;index"`
	Position    int64           `json:"position" gorm:"not null;default:0"` // 1-based place in the history

	// Relations
	ShopOwner *User `json:"shop_owner,omitempty" gorm:"foreignKey:ShopOwnerID"`
}

// BeforeCreate sets UUID and timestamp before creating the record.
func (e *PriceEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	return nil
}
