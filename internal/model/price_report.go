package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportStatus represents the verification state of a price report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "Pending"
	ReportStatusApproved ReportStatus = "Approved"
	ReportStatusRejected ReportStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusApproved || s == ReportStatusRejected
}

// PriceReport is a community price observation awaiting verification.
// ProductName, MarketName and ShopName are free text resolved at approval time.
type PriceReport struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	ProductName   string          `json:"product_name" gorm:"size:255;not null"`
	MarketName    string          `json:"market_name" gorm:"size:255;not null"`
	ShopName      string          `json:"shop_name" gorm:"size:255;not null"`
	ReportedPrice decimal.Decimal `json:"reported_price" gorm:"type:decimal(20,2);not null"`
	ReportedByID  uuid.UUID       `json:"reported_by_id" gorm:"type:char(36);not null;index"`
	Status        ReportStatus    `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	ReportedBy *User `json:"reported_by,omitempty" gorm:"foreignKey:ReportedByID"`
}

// BeforeCreate sets UUID before creating the record.
func (r *PriceReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
