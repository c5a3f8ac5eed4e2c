package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefrontlabs/storefront-backend/internal/cart"
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	"github.com/storefrontlabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

// Service snapshots carts into immutable orders and manages their lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResponse, error)
}

type service struct {
	repo  Repository
	carts cart.CartRepository
	tx    TxRunner
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Repo     Repository
	CartRepo cart.CartRepository
	TxRunner TxRunner
}

// NewService constructs an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	return &service{
		repo:  params.Repo,
		carts: params.CartRepo,
		tx:    params.TxRunner,
	}, nil
}

// CreateOrder atomically snapshots the user's cart into a pending order and
// removes the snapshotted lines. The cart is loaded inside the transaction and
// only the loaded item rows are deleted, so an item a concurrent request adds
// mid-checkout stays in the cart instead of vanishing unordered. Line items
// copy the cart's frozen price; the catalog is not re-read.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		cartRepo := s.carts.WithTx(tx)

		userCart, err := cartRepo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "cart is empty")
			}
			return fmt.Errorf("load cart: %w", err)
		}
		if len(userCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "cart is empty")
		}

		order := &models.Order{
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			TotalPrice:      cart.TotalOf(userCart.Items),
			ShippingName:    req.ShippingName,
			ShippingAddress: req.ShippingAddress,
			ShippingCity:    req.ShippingCity,
			ShippingState:   req.ShippingState,
			ShippingZip:     req.ShippingZip,
			ShippingCountry: req.ShippingCountry,
			ShippingPhone:   req.ShippingPhone,
			ShippingEmail:   req.ShippingEmail,
			Notes:           req.Notes,
		}
		if _, err := orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(userCart.Items))
		orderedLines := make([]uuid.UUID, 0, len(userCart.Items))
		for _, line := range userCart.Items {
			items = append(items, models.OrderItem{
				OrderID:      order.ID,
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				PriceAtOrder: line.PriceAtAdd,
			})
			orderedLines = append(orderedLines, line.ID)
		}
		if err := orderRepo.CreateItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		if err := cartRepo.DeleteItemsByID(ctx, userCart.ID, orderedLines); err != nil {
			return fmt.Errorf("clear ordered cart lines: %w", err)
		}

		order.Items = items
		created = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout")
	}

	return created, nil
}

// CancelOrder moves a pending order to cancelled. Any other current status is
// rejected; there are no further lifecycle states.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find order")
	}

	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "only pending orders can be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	// the update itself re-checks the status, so a racing cancel (or a future
	// transition) between the read above and here cannot be overwritten
	moved, err := s.repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}
	if !moved {
		details := map[string]any{}
		if current, findErr := s.repo.FindByIDAndUser(ctx, orderID, userID); findErr == nil {
			details["status"] = current.Status
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "only pending orders can be cancelled").
			WithDetails(details)
	}
	order.Status = enums.OrderStatusCancelled
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResponse, error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &OrderListResponse{
		Orders: orders,
		Meta:   pagination.MetaFor(params, total),
	}, nil
}
