package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Market is a physical marketplace where shops trade.
type Market struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Location    string    `json:"location" gorm:"size:255;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Latitude    *float64  `json:"lat,omitempty"`
	Longitude   *float64  `json:"lng,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (m *Market) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
