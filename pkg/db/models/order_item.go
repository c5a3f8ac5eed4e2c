package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one cart line at checkout. PriceAtOrder copies the cart
// item's frozen price, not the live catalog price, and rows are never mutated
// after insert.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity     int             `gorm:"column:quantity;not null" json:"quantity"`
	PriceAtOrder decimal.Decimal `gorm:"column:price_at_order;type:numeric(10,2);not null" json:"price_at_order"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
