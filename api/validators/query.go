package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefrontlabs/storefront-backend/internal/catalog"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

const maxSearchTermLen = 200

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseProductQuery maps the product listing query string onto the catalog
// filter clauses. Unknown values surface as validation errors rather than
// being silently dropped.
func ParseProductQuery(r *http.Request) (catalog.ProductQuery, error) {
	query := catalog.ProductQuery{}

	page, err := ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return query, err
	}
	perPage, err := ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return query, err
	}
	query.Page = pagination.Params{Page: page, PerPage: perPage}

	if raw := SanitizeString(r.URL.Query().Get("q"), maxSearchTermLen); raw != "" {
		query.Filters = append(query.Filters, catalog.Filter{
			Field: "title", Op: catalog.OpContains, Value: raw,
		})
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return query, pkgerrors.New(pkgerrors.CodeValidation, "invalid category id").WithDetails(map[string]any{"field": "category"})
		}
		query.Filters = append(query.Filters, catalog.Filter{
			Field: "category", Op: catalog.OpEq, Value: categoryID,
		})
	}

	minPrice, hasMin, err := parseQueryDecimal(r, "min_price")
	if err != nil {
		return query, err
	}
	maxPrice, hasMax, err := parseQueryDecimal(r, "max_price")
	if err != nil {
		return query, err
	}
	switch {
	case hasMin && hasMax:
		query.Filters = append(query.Filters, catalog.Filter{
			Field: "price", Op: catalog.OpBetween,
			Value: catalog.PriceRange{Min: minPrice, Max: maxPrice},
		})
	case hasMin:
		query.Filters = append(query.Filters, catalog.Filter{
			Field: "price", Op: catalog.OpGte, Value: minPrice,
		})
	case hasMax:
		query.Filters = append(query.Filters, catalog.Filter{
			Field: "price", Op: catalog.OpLte, Value: maxPrice,
		})
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("in_stock")); raw != "" {
		stockMin, err := strconv.Atoi(raw)
		if err != nil || stockMin < 0 {
			return query, pkgerrors.New(pkgerrors.CodeValidation, "in_stock must be a non-negative integer").WithDetails(map[string]any{"field": "in_stock"})
		}
		query.Filters = append(query.Filters, catalog.Filter{
			Field: "stock_quantity", Op: catalog.OpGte, Value: stockMin,
		})
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("sort")); raw != "" {
		query.Sort = raw
	}
	switch order := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("order"))); order {
	case "", "asc":
	case "desc":
		query.Desc = true
	default:
		return query, pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc").WithDetails(map[string]any{"field": "order"})
	}

	return query, nil
}

func parseQueryDecimal(r *http.Request, key string) (decimal.Decimal, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return decimal.Zero, false, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a decimal").WithDetails(map[string]any{"field": key})
	}
	if value.IsNegative() {
		return decimal.Zero, false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must not be negative").WithDetails(map[string]any{"field": key})
	}
	return value, true, nil
}
