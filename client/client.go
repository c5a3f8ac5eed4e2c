package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/storefrontlabs/storefront-backend/internal/auth"
	cartsvc "github.com/storefrontlabs/storefront-backend/internal/cart"
	ordersvc "github.com/storefrontlabs/storefront-backend/internal/orders"
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	"github.com/storefrontlabs/storefront-backend/pkg/types"
)

const defaultTimeout = 10 * time.Second

// APIError carries a decoded error envelope from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client is a typed HTTP client for the storefront REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

// New builds a client against the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// SetToken installs the bearer token sent on subsequent requests. An empty
// token reverts the client to anonymous requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
	var out authsvc.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
	var out authsvc.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.AuthResponse, error) {
	var out authsvc.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

func (c *Client) GetCart(ctx context.Context) (*cartsvc.CartDTO, error) {
	var out cartsvc.CartDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddCartItem(ctx context.Context, req cartsvc.AddItemRequest) (*cartsvc.CartDTO, error) {
	var out cartsvc.CartDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/items", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	var out cartsvc.CartDTO
	path := "/api/v1/cart/items/" + itemID.String()
	if err := c.do(ctx, http.MethodPut, path, cartsvc.UpdateItemRequest{Quantity: quantity}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	var out cartsvc.CartDTO
	path := "/api/v1/cart/items/" + itemID.String()
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cart", nil, nil)
}

func (c *Client) MergeCart(ctx context.Context, entries []cartsvc.GuestCartEntry) (*cartsvc.CartDTO, error) {
	var out cartsvc.CartDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/merge", cartsvc.MergeRequest{Items: entries}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req ordersvc.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, page, perPage int) (*ordersvc.OrderListResponse, error) {
	var out ordersvc.OrderListResponse
	path := fmt.Sprintf("/api/v1/orders?page=%d&per_page=%d", page, perPage)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *types.APIError `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	u := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
