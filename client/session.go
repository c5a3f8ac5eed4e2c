package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	authsvc "github.com/storefrontlabs/storefront-backend/internal/auth"
	cartsvc "github.com/storefrontlabs/storefront-backend/internal/cart"
)

// Session tracks one user's shopping state across the anonymous and
// authenticated phases. While anonymous, cart mutations hit the local
// GuestCart; after login they hit the server. The transition merges the
// local cart into the server cart exactly once, and the local copy is
// discarded only after the merge call succeeds.
type Session struct {
	mu     sync.Mutex
	api    *Client
	guest  *GuestCart
	tokens *authsvc.AuthResponse
	merged bool
}

// NewSession pairs an API client with a local guest cart. Both are required.
func NewSession(api *Client, guest *GuestCart) (*Session, error) {
	if api == nil {
		return nil, errors.New("session requires an api client")
	}
	if guest == nil {
		return nil, errors.New("session requires a guest cart")
	}
	return &Session{api: api, guest: guest}, nil
}

// Authenticated reports whether the session currently holds server tokens.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens != nil
}

// Login authenticates against the server and merges the guest cart into the
// account cart. A failed merge leaves the session logged in with the local
// cart intact so a retry can pick it up.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.api.Login(ctx, authsvc.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	s.adopt(resp)
	return s.mergeLocked(ctx)
}

// Register creates an account and merges the guest cart the same way Login
// does.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.api.Register(ctx, authsvc.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	s.adopt(resp)
	return s.mergeLocked(ctx)
}

// Logout revokes the server session and returns the session to local cart
// mutation. The next login merges again from whatever the guest cart holds.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return nil
	}
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	s.tokens = nil
	s.merged = false
	s.api.SetToken("")
	return nil
}

// AddItem adds to the server cart when authenticated, otherwise to the local
// guest cart.
func (s *Session) AddItem(ctx context.Context, item GuestItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return s.guest.Add(item)
	}
	_, err := s.api.AddCartItem(ctx, cartsvc.AddItemRequest{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	})
	return err
}

// RemoveItem removes a product line. Authenticated removal resolves the cart
// item by product through the server cart first.
func (s *Session) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return s.guest.Remove(productID)
	}
	itemID, err := s.findServerItem(ctx, productID)
	if err != nil {
		return err
	}
	_, err = s.api.RemoveCartItem(ctx, itemID)
	return err
}

// UpdateQuantity sets a product line's quantity, locally or on the server.
func (s *Session) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return s.guest.UpdateQuantity(productID, quantity)
	}
	itemID, err := s.findServerItem(ctx, productID)
	if err != nil {
		return err
	}
	_, err = s.api.UpdateCartItem(ctx, itemID, quantity)
	return err
}

// ClearCart empties whichever cart is active.
func (s *Session) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return s.guest.Clear()
	}
	return s.api.ClearCart(ctx)
}

// CartTotal returns the current cart total, server-side when authenticated.
func (s *Session) CartTotal(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return s.guest.Total(), nil
	}
	dto, err := s.api.GetCart(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return dto.Total, nil
}

func (s *Session) adopt(resp *authsvc.AuthResponse) {
	s.tokens = resp
	s.merged = false
	s.api.SetToken(resp.AccessToken)
}

// mergeLocked pushes the guest cart to the server once per authenticated
// session. Callers must hold s.mu.
func (s *Session) mergeLocked(ctx context.Context) error {
	if s.merged {
		return nil
	}
	entries := s.guest.Entries()
	if len(entries) == 0 {
		s.merged = true
		return nil
	}
	if _, err := s.api.MergeCart(ctx, entries); err != nil {
		return fmt.Errorf("merge guest cart: %w", err)
	}
	s.merged = true
	return s.guest.Clear()
}

func (s *Session) findServerItem(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	dto, err := s.api.GetCart(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	for _, item := range dto.Items {
		if item.ProductID == productID {
			return item.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("product %s not in cart", productID)
}
