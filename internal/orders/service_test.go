package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefrontlabs/storefront-backend/internal/cart"
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	"github.com/storefrontlabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

type fakeOrderRepo struct {
	orders    map[uuid.UUID]*models.Order
	items     map[uuid.UUID][]models.OrderItem
	failItems bool
	afterFind func() // runs once after the next FindByIDAndUser snapshot
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]*models.Order),
		items:  make(map[uuid.UUID][]models.OrderItem),
	}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	copied := *order
	f.orders[order.ID] = &copied
	return order, nil
}

func (f *fakeOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if f.failItems {
		return errors.New("connection reset")
	}
	for _, item := range items {
		f.items[item.OrderID] = append(f.items[item.OrderID], item)
	}
	return nil
}

func (f *fakeOrderRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.Items = append([]models.OrderItem(nil), f.items[id]...)
	if f.afterFind != nil {
		hook := f.afterFind
		f.afterFind = nil
		hook()
	}
	return &copied, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	var result []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			result = append(result, *order)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeOrderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	order, ok := f.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	return true, nil
}

type fakeCartRepo struct {
	carts     map[uuid.UUID]*models.Cart
	items     map[uuid.UUID][]models.CartItem
	afterFind func() // runs once after the next FindByUserID snapshot
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		carts: make(map[uuid.UUID]*models.Cart),
		items: make(map[uuid.UUID][]models.CartItem),
	}
}

func (f *fakeCartRepo) seed(userID uuid.UUID, items ...models.CartItem) *models.Cart {
	c := &models.Cart{ID: uuid.New(), UserID: userID}
	f.carts[userID] = c
	for i := range items {
		items[i].ID = uuid.New()
		items[i].CartID = c.ID
	}
	f.items[c.ID] = items
	return c
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) cart.CartRepository { return f }

func (f *fakeCartRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	copied.Items = append([]models.CartItem(nil), f.items[c.ID]...)
	if f.afterFind != nil {
		hook := f.afterFind
		f.afterFind = nil
		hook()
	}
	return &copied, nil
}

func (f *fakeCartRepo) CreateForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	c := &models.Cart{ID: uuid.New(), UserID: userID}
	f.carts[userID] = c
	return c, nil
}

func (f *fakeCartRepo) UpsertItemIncrement(ctx context.Context, item *models.CartItem) error {
	f.items[item.CartID] = append(f.items[item.CartID], *item)
	return nil
}

func (f *fakeCartRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	return nil
}

func (f *fakeCartRepo) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return nil
}

func (f *fakeCartRepo) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	f.items[cartID] = nil
	return nil
}

func (f *fakeCartRepo) DeleteItemsByID(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	var kept []models.CartItem
	for _, item := range f.items[cartID] {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	f.items[cartID] = kept
	return nil
}

func (f *fakeCartRepo) DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeTxRunner mimics rollback by restoring both repos when the transactional
// function errors.
type fakeTxRunner struct {
	orders *fakeOrderRepo
	carts  *fakeCartRepo
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ordersBefore := make(map[uuid.UUID]*models.Order, len(f.orders.orders))
	for k, v := range f.orders.orders {
		copied := *v
		ordersBefore[k] = &copied
	}
	cartItemsBefore := make(map[uuid.UUID][]models.CartItem, len(f.carts.items))
	for k, v := range f.carts.items {
		cartItemsBefore[k] = append([]models.CartItem(nil), v...)
	}

	if err := fn(nil); err != nil {
		f.orders.orders = ordersBefore
		f.carts.items = cartItemsBefore
		return err
	}
	return nil
}

func newTestService(t *testing.T, orderRepo *fakeOrderRepo, cartRepo *fakeCartRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     orderRepo,
		CartRepo: cartRepo,
		TxRunner: &fakeTxRunner{orders: orderRepo, carts: cartRepo},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func shippingRequest() CreateOrderRequest {
	return CreateOrderRequest{
		ShippingName:    "Ada Lovelace",
		ShippingAddress: "1 Analytical Way",
		ShippingCity:    "London",
		ShippingState:   "LDN",
		ShippingZip:     "E1 6AN",
		ShippingCountry: "UK",
		ShippingPhone:   "+44 20 7946 0958",
		ShippingEmail:   "ada@example.com",
	}
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	productA := uuid.New()
	productB := uuid.New()
	seeded := cartRepo.seed(userID,
		models.CartItem{ProductID: productA, Quantity: 2, PriceAtAdd: decimal.RequireFromString("19.99")},
		models.CartItem{ProductID: productB, Quantity: 1, PriceAtAdd: decimal.RequireFromString("5.50")},
	)

	order, err := svc.CreateOrder(context.Background(), userID, shippingRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.TotalPrice.String() != "45.48" {
		t.Fatalf("expected total 45.48, got %s", order.TotalPrice)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.ProductID == productA && item.PriceAtOrder.String() != "19.99" {
			t.Fatalf("expected frozen price copied, got %s", item.PriceAtOrder)
		}
	}

	// the cart must be empty afterwards
	if remaining := cartRepo.items[seeded.ID]; len(remaining) != 0 {
		t.Fatalf("expected cart cleared, %d items remain", len(remaining))
	}
}

func TestCreateOrderLeavesConcurrentlyAddedItems(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	productA := uuid.New()
	seeded := cartRepo.seed(userID,
		models.CartItem{ProductID: productA, Quantity: 2, PriceAtAdd: decimal.RequireFromString("19.99")},
	)

	// another request lands an item right after checkout snapshots the cart
	productB := uuid.New()
	cartRepo.afterFind = func() {
		cartRepo.items[seeded.ID] = append(cartRepo.items[seeded.ID], models.CartItem{
			ID:         uuid.New(),
			CartID:     seeded.ID,
			ProductID:  productB,
			Quantity:   3,
			PriceAtAdd: decimal.RequireFromString("2.00"),
		})
	}

	order, err := svc.CreateOrder(context.Background(), userID, shippingRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if len(order.Items) != 1 || order.Items[0].ProductID != productA {
		t.Fatalf("expected only the snapshotted line ordered, got %+v", order.Items)
	}

	remaining := cartRepo.items[seeded.ID]
	if len(remaining) != 1 || remaining[0].ProductID != productB || remaining[0].Quantity != 3 {
		t.Fatalf("expected the concurrently added item to survive checkout, got %+v", remaining)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	// no cart at all
	_, err := svc.CreateOrder(context.Background(), userID, shippingRequest())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidState {
		t.Fatalf("expected invalid state without cart, got %v", err)
	}

	// cart exists but holds nothing
	cartRepo.seed(userID)
	_, err = svc.CreateOrder(context.Background(), userID, shippingRequest())
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidState {
		t.Fatalf("expected invalid state for empty cart, got %v", err)
	}
}

func TestCreateOrderRollsBackOnFailure(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderRepo.failItems = true
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	seeded := cartRepo.seed(userID,
		models.CartItem{ProductID: uuid.New(), Quantity: 1, PriceAtAdd: decimal.RequireFromString("9.99")},
	)

	if _, err := svc.CreateOrder(context.Background(), userID, shippingRequest()); err == nil {
		t.Fatal("expected checkout to fail")
	}

	if len(orderRepo.orders) != 0 {
		t.Fatalf("expected no order persisted, got %d", len(orderRepo.orders))
	}
	if len(cartRepo.items[seeded.ID]) != 1 {
		t.Fatal("expected cart untouched after rollback")
	}
}

func TestCancelOrderOnlyPending(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	cartRepo.seed(userID,
		models.CartItem{ProductID: uuid.New(), Quantity: 1, PriceAtAdd: decimal.RequireFromString("9.99")},
	)
	order, err := svc.CreateOrder(context.Background(), userID, shippingRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	cancelled, err := svc.CancelOrder(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	// a cancelled order cannot be cancelled again
	_, err = svc.CancelOrder(context.Background(), userID, order.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestCancelOrderLosingRaceIsInvalidState(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	cartRepo.seed(userID,
		models.CartItem{ProductID: uuid.New(), Quantity: 1, PriceAtAdd: decimal.RequireFromString("9.99")},
	)
	order, err := svc.CreateOrder(context.Background(), userID, shippingRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// a second cancel commits between the status read and the update
	orderRepo.afterFind = func() {
		orderRepo.orders[order.ID].Status = enums.OrderStatusCancelled
	}

	_, err = svc.CancelOrder(context.Background(), userID, order.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidState {
		t.Fatalf("expected invalid state after losing the race, got %v", err)
	}
	if orderRepo.orders[order.ID].Status != enums.OrderStatusCancelled {
		t.Fatalf("racing transition must not be overwritten, got %s", orderRepo.orders[order.ID].Status)
	}
}

func TestCancelOrderScopedToUser(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	cartRepo.seed(userID,
		models.CartItem{ProductID: uuid.New(), Quantity: 1, PriceAtAdd: decimal.RequireFromString("9.99")},
	)
	order, err := svc.CreateOrder(context.Background(), userID, shippingRequest())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = svc.CancelOrder(context.Background(), uuid.New(), order.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for another user, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	cartRepo := newFakeCartRepo()
	svc := newTestService(t, orderRepo, cartRepo)
	userID := uuid.New()

	cartRepo.seed(userID,
		models.CartItem{ProductID: uuid.New(), Quantity: 2, PriceAtAdd: decimal.RequireFromString("3.00")},
	)
	if _, err := svc.CreateOrder(context.Background(), userID, shippingRequest()); err != nil {
		t.Fatalf("create order: %v", err)
	}

	resp, err := svc.ListOrders(context.Background(), userID, pagination.Params{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Meta.Total != 1 {
		t.Fatalf("expected one order, got %+v", resp.Meta)
	}
}
