package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing. Cart items freeze a copy of Price at
// the moment of addition; they never track the live value.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string          `gorm:"column:title;not null" json:"title"`
	Description   *string         `gorm:"column:description" json:"description,omitempty"`
	ImageURL      *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid" json:"category_id,omitempty"`
	Category      *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	// ExternalID ties an imported row back to its source so re-imports upsert
	// instead of duplicating.
	ExternalID *int64    `gorm:"column:external_id;uniqueIndex" json:"external_id,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
