package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

// Service defines the behavior needed by the catalog controllers.
type Service interface {
	ListProducts(ctx context.Context, query ProductQuery) (*ProductListResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type productRepository interface {
	ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, int64, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type service struct {
	repo productRepository
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Repo productRepository
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) ListProducts(ctx context.Context, query ProductQuery) (*ProductListResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product query")
	}

	products, total, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	return &ProductListResponse{
		Products: products,
		Meta:     pagination.MetaFor(query.Page, total),
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find product")
	}
	return product, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}
