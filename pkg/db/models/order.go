package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefrontlabs/storefront-backend/pkg/enums"
)

// Order is the immutable checkout snapshot of a cart. Only Status ever changes
// after creation.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null" json:"total_price"`

	ShippingName    string  `gorm:"column:shipping_name;not null" json:"shipping_name"`
	ShippingAddress string  `gorm:"column:shipping_address;not null" json:"shipping_address"`
	ShippingCity    string  `gorm:"column:shipping_city;not null" json:"shipping_city"`
	ShippingState   string  `gorm:"column:shipping_state;not null" json:"shipping_state"`
	ShippingZip     string  `gorm:"column:shipping_zip;not null" json:"shipping_zip"`
	ShippingCountry string  `gorm:"column:shipping_country;not null" json:"shipping_country"`
	ShippingPhone   string  `gorm:"column:shipping_phone;not null" json:"shipping_phone"`
	ShippingEmail   string  `gorm:"column:shipping_email;not null" json:"shipping_email"`
	Notes           *string `gorm:"column:notes" json:"notes,omitempty"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
