package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
)

// CartDTO is the transport shape of a cart, with the total derived from the
// item list on every read rather than stored.
type CartDTO struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Items     []models.CartItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
}

// AddItemRequest adds a product to the authenticated user's cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=100"`
}

// UpdateItemRequest overwrites a cart item's quantity. Zero removes the item.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=100"`
}

// GuestCartEntry is one line of the client-side cart submitted at login.
// Pointers distinguish absent fields from zero values so partial entries can
// be skipped instead of misread.
type GuestCartEntry struct {
	ProductID *uuid.UUID `json:"product_id"`
	Quantity  *int       `json:"quantity"`
}

// MergeRequest folds a guest cart into the server-side cart.
type MergeRequest struct {
	Items []GuestCartEntry `json:"items" validate:"required,dive"`
}

// FromModel derives the transport cart from the stored one.
func FromModel(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		Total:     TotalOf(items),
		CreatedAt: cart.CreatedAt,
	}
}

// TotalOf sums quantity times frozen price across the items.
func TotalOf(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.PriceAtAdd.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
