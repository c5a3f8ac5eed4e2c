package catalog

import (
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

// ProductListResponse is one page of catalog results.
type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Meta     pagination.Meta  `json:"meta"`
}

// ImportSummary reports the outcome of a catalog import run.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
