package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefrontlabs/storefront-backend/pkg/config"
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
)

// Service owns the authoritative cart for an identified user.
type Service interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	MergeGuestCart(ctx context.Context, userID uuid.UUID, entries []GuestCartEntry) (*CartDTO, error)
	CartTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo     CartRepository
	products ProductFinder
	tx       TxRunner
	maxQty   int
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo       CartRepository
	Products   ProductFinder
	TxRunner   TxRunner
	CartConfig config.CartConfig
}

// NewService constructs a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	maxQty := params.CartConfig.MaxQuantity
	if maxQty <= 0 {
		maxQty = 100
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		tx:       params.TxRunner,
		maxQty:   maxQty,
	}, nil
}

// GetOrCreateCart returns the user's cart, lazily creating an empty one. A
// concurrent create losing the unique-constraint race falls back to reloading
// the winner's row.
func (s *service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if req.Quantity < 1 || req.Quantity > s.maxQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", s.maxQty))
	}

	product, err := s.products.FindProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := &models.CartItem{
		CartID:     cart.ID,
		ProductID:  product.ID,
		Quantity:   req.Quantity,
		PriceAtAdd: product.Price,
	}
	if err := s.repo.UpsertItemIncrement(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}

	return s.reload(ctx, userID)
}

// UpdateItemQuantity overwrites the item's quantity. Zero (or below) removes
// the item, matching the remove operation exactly.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity > s.maxQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", s.maxQty))
	}

	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart item")
	}

	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
		}
	} else {
		if err := s.repo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
	}

	return s.reload(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find cart item")
	}

	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}

	return s.reload(ctx, userID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// MergeGuestCart folds the client-side guest cart into the server cart inside
// one transaction, applying the same checks as AddItem per entry. Only entries
// missing a field are tolerated and skipped; an unknown product or an
// out-of-range quantity rolls the whole merge back.
func (s *service) MergeGuestCart(ctx context.Context, userID uuid.UUID, entries []GuestCartEntry) (*CartDTO, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, entry := range entries {
			if entry.ProductID == nil || entry.Quantity == nil {
				continue
			}
			qty := *entry.Quantity
			if qty < 1 || qty > s.maxQty {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", s.maxQty))
			}

			product, err := s.products.FindProductByID(ctx, *entry.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return err
			}

			item := &models.CartItem{
				CartID:     cart.ID,
				ProductID:  product.ID,
				Quantity:   qty,
				PriceAtAdd: product.Price,
			}
			if err := repo.UpsertItemIncrement(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge guest cart")
	}

	return s.reload(ctx, userID)
}

// CartTotal derives the current total from the item list; nothing is stored.
func (s *service) CartTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return TotalOf(cart.Items), nil
}

func (s *service) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	cart, err = s.repo.CreateForUser(ctx, userID)
	if err == nil {
		return cart, nil
	}

	// lost the unique-constraint race; the other writer's cart is now there
	existing, findErr := s.repo.FindByUserID(ctx, userID)
	if findErr == nil {
		return existing, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
}

func (s *service) requireCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return FromModel(cart), nil
}
