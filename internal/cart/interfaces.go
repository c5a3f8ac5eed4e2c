package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItemIncrement(ctx context.Context, item *models.CartItem) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	DeleteItemsByID(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error
	DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProductFinder supplies product existence checks and the live price at the
// moment an item is added.
type ProductFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
