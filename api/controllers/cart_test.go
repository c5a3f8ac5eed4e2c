package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefrontlabs/storefront-backend/api/middleware"
	cartsvc "github.com/storefrontlabs/storefront-backend/internal/cart"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
	"github.com/storefrontlabs/storefront-backend/pkg/types"
)

type fakeCartService struct {
	cart       *cartsvc.CartDTO
	err        error
	lastUserID uuid.UUID
	lastAdd    cartsvc.AddItemRequest
	lastQty    int
	lastMerge  []cartsvc.GuestCartEntry
}

func (f *fakeCartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*cartsvc.CartDTO, error) {
	f.lastUserID = userID
	return f.cart, f.err
}

func (f *fakeCartService) AddItem(ctx context.Context, userID uuid.UUID, req cartsvc.AddItemRequest) (*cartsvc.CartDTO, error) {
	f.lastUserID = userID
	f.lastAdd = req
	return f.cart, f.err
}

func (f *fakeCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	f.lastUserID = userID
	f.lastQty = quantity
	return f.cart, f.err
}

func (f *fakeCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	f.lastUserID = userID
	return f.cart, f.err
}

func (f *fakeCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	f.lastUserID = userID
	return f.err
}

func (f *fakeCartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, entries []cartsvc.GuestCartEntry) (*cartsvc.CartDTO, error) {
	f.lastUserID = userID
	f.lastMerge = entries
	return f.cart, f.err
}

func (f *fakeCartService) CartTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, f.err
}

func authedRequest(t *testing.T, method, target, body string, userID uuid.UUID) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestCartFetchReturnsCart(t *testing.T) {
	userID := uuid.New()
	svc := &fakeCartService{cart: &cartsvc.CartDTO{ID: uuid.New(), UserID: userID, Total: decimal.Zero}}

	resp := httptest.NewRecorder()
	CartFetch(svc, nil)(resp, authedRequest(t, http.MethodGet, "/api/v1/cart", "", userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastUserID != userID {
		t.Fatalf("expected user %s passed to service, got %s", userID, svc.lastUserID)
	}
}

func TestCartFetchRequiresAuth(t *testing.T) {
	svc := &fakeCartService{}
	resp := httptest.NewRecorder()
	CartFetch(svc, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemDecodesAndCreates(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &fakeCartService{cart: &cartsvc.CartDTO{ID: uuid.New(), UserID: userID}}

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	resp := httptest.NewRecorder()
	CartAddItem(svc, nil)(resp, authedRequest(t, http.MethodPost, "/api/v1/cart/items", body, userID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Quantity != 3 {
		t.Fatalf("unexpected add request %+v", svc.lastAdd)
	}
}

func TestCartAddItemRejectsBadPayload(t *testing.T) {
	userID := uuid.New()
	svc := &fakeCartService{}

	cases := map[string]string{
		"zero quantity":  `{"product_id":"` + uuid.NewString() + `","quantity":0}`,
		"over max":       `{"product_id":"` + uuid.NewString() + `","quantity":101}`,
		"missing fields": `{}`,
		"unknown field":  `{"product_id":"` + uuid.NewString() + `","quantity":1,"color":"red"}`,
	}
	for name, body := range cases {
		resp := httptest.NewRecorder()
		CartAddItem(svc, nil)(resp, authedRequest(t, http.MethodPost, "/api/v1/cart/items", body, userID))
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422 got %d", name, resp.Code)
		}
	}
}

func TestCartUpdateItemPassesQuantity(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()
	svc := &fakeCartService{cart: &cartsvc.CartDTO{ID: uuid.New(), UserID: userID}}

	req := authedRequest(t, http.MethodPut, "/api/v1/cart/items/"+itemID.String(), `{"quantity":0}`, userID)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemId", itemID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastQty != 0 {
		t.Fatalf("expected quantity 0 forwarded, got %d", svc.lastQty)
	}
}

func TestCartMergeForwardsEntries(t *testing.T) {
	userID := uuid.New()
	svc := &fakeCartService{cart: &cartsvc.CartDTO{ID: uuid.New(), UserID: userID}}

	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":2},{"quantity":5}]}`
	resp := httptest.NewRecorder()
	CartMerge(svc, nil)(resp, authedRequest(t, http.MethodPost, "/api/v1/cart/merge", body, userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.lastMerge) != 2 {
		t.Fatalf("expected both entries forwarded, got %d", len(svc.lastMerge))
	}
	if svc.lastMerge[1].ProductID != nil {
		t.Fatal("partial entry should keep its nil product id")
	}
}

func TestCartControllersMapServiceErrors(t *testing.T) {
	userID := uuid.New()
	svc := &fakeCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}

	resp := httptest.NewRecorder()
	CartRemoveItem(svc, nil)(resp, withItemParam(authedRequest(t, http.MethodDelete, "/api/v1/cart/items/"+uuid.NewString(), "", userID), uuid.New()))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func withItemParam(req *http.Request, itemID uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemId", itemID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}
