package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/storefrontlabs/storefront-backend/internal/cart"
)

// GuestItem is one line of the local cart kept for anonymous browsing.
type GuestItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"image_url"`
}

// GuestCart is a file-persisted cart for users who have not logged in.
// Every mutation writes the file before returning, so a crash never loses
// more than the in-flight change.
type GuestCart struct {
	mu    sync.Mutex
	path  string
	items []GuestItem
}

// NewGuestCart loads the cart stored at path, or starts empty when the file
// does not exist yet.
func NewGuestCart(path string) (*GuestCart, error) {
	gc := &GuestCart{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return gc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guest cart: %w", err)
	}
	if len(raw) == 0 {
		return gc, nil
	}
	if err := json.Unmarshal(raw, &gc.items); err != nil {
		return nil, fmt.Errorf("decode guest cart %s: %w", path, err)
	}
	return gc, nil
}

// Add folds quantity into an existing line for the same product, or appends
// a new line.
func (g *GuestCart) Add(item GuestItem) error {
	if item.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.items {
		if g.items[i].ProductID == item.ProductID {
			g.items[i].Quantity += item.Quantity
			return g.persist()
		}
	}
	g.items = append(g.items, item)
	return g.persist()
}

// UpdateQuantity sets the line quantity for a product. Zero removes the line.
func (g *GuestCart) UpdateQuantity(productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.items {
		if g.items[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			g.items = append(g.items[:i], g.items[i+1:]...)
		} else {
			g.items[i].Quantity = quantity
		}
		return g.persist()
	}
	return fmt.Errorf("product %s not in cart", productID)
}

// Remove drops the line for a product. Removing an absent product is a no-op.
func (g *GuestCart) Remove(productID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.items {
		if g.items[i].ProductID == productID {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return g.persist()
		}
	}
	return nil
}

// Clear empties the cart and persists the empty state.
func (g *GuestCart) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.items = nil
	return g.persist()
}

// Items returns a copy of the current lines.
func (g *GuestCart) Items() []GuestItem {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]GuestItem, len(g.items))
	copy(out, g.items)
	return out
}

// Total sums price times quantity across all lines.
func (g *GuestCart) Total() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := decimal.Zero
	for _, item := range g.items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Entries converts the local lines into the merge request payload.
func (g *GuestCart) Entries() []cartsvc.GuestCartEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entries := make([]cartsvc.GuestCartEntry, 0, len(g.items))
	for i := range g.items {
		pid := g.items[i].ProductID
		qty := g.items[i].Quantity
		entries = append(entries, cartsvc.GuestCartEntry{ProductID: &pid, Quantity: &qty})
	}
	return entries
}

// persist writes via a temp file and rename so a partial write never
// corrupts the stored cart. Callers must hold g.mu.
func (g *GuestCart) persist() error {
	payload, err := json.MarshalIndent(g.items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(g.path), ".guestcart-*")
	if err != nil {
		return fmt.Errorf("write guest cart: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write guest cart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write guest cart: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write guest cart: %w", err)
	}
	return nil
}
