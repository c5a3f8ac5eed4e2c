package orders

import (
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

// CreateOrderRequest carries the shipping details collected at checkout.
type CreateOrderRequest struct {
	ShippingName    string  `json:"shipping_name" validate:"required,max=255"`
	ShippingAddress string  `json:"shipping_address" validate:"required,max=500"`
	ShippingCity    string  `json:"shipping_city" validate:"required,max=255"`
	ShippingState   string  `json:"shipping_state" validate:"required,max=255"`
	ShippingZip     string  `json:"shipping_zip" validate:"required,max=32"`
	ShippingCountry string  `json:"shipping_country" validate:"required,max=255"`
	ShippingPhone   string  `json:"shipping_phone" validate:"required,max=32"`
	ShippingEmail   string  `json:"shipping_email" validate:"required,email,max=255"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// OrderListResponse is one page of the user's order history.
type OrderListResponse struct {
	Orders []models.Order  `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}
