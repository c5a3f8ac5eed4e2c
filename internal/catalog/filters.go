package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefrontlabs/storefront-backend/pkg/pagination"
)

// Operator enumerates the comparison kinds a catalog filter may use.
type Operator string

const (
	OpEq       Operator = "eq"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpBetween  Operator = "between"
	OpContains Operator = "contains"
)

// Filter is one {field, operator, value} clause of a product query.
// Values are typed per field: decimals for price, ints for stock,
// strings for title and category.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// ProductQuery is the composable filter set handed to the repository.
// Filters are ANDed together; an empty query lists everything.
type ProductQuery struct {
	Filters []Filter
	Sort    string
	Desc    bool
	Page    pagination.Params
}

// Filterable fields and the operators each one accepts.
var allowedFilters = map[string]map[Operator]bool{
	"title":          {OpContains: true},
	"category":       {OpEq: true},
	"price":          {OpGte: true, OpLte: true, OpBetween: true},
	"stock_quantity": {OpGte: true},
}

var allowedSorts = map[string]bool{
	"title":          true,
	"price":          true,
	"stock_quantity": true,
	"created_at":     true,
}

// Validate rejects unknown fields, operators, and malformed values before the
// query reaches SQL.
func (q ProductQuery) Validate() error {
	for _, f := range q.Filters {
		ops, ok := allowedFilters[f.Field]
		if !ok {
			return fmt.Errorf("unknown filter field %q", f.Field)
		}
		if !ops[f.Op] {
			return fmt.Errorf("operator %q not allowed for field %q", f.Op, f.Field)
		}
		if err := validateFilterValue(f); err != nil {
			return err
		}
	}
	if q.Sort != "" && !allowedSorts[q.Sort] {
		return fmt.Errorf("unknown sort field %q", q.Sort)
	}
	return nil
}

func validateFilterValue(f Filter) error {
	switch f.Op {
	case OpBetween:
		bounds, ok := f.Value.(PriceRange)
		if !ok {
			return fmt.Errorf("between filter on %q requires a price range", f.Field)
		}
		if bounds.Min.GreaterThan(bounds.Max) {
			return fmt.Errorf("price range min exceeds max")
		}
	case OpContains:
		if _, ok := f.Value.(string); !ok {
			return fmt.Errorf("contains filter on %q requires a string", f.Field)
		}
	case OpEq:
		if f.Field == "category" {
			if _, ok := f.Value.(uuid.UUID); !ok {
				return fmt.Errorf("category filter requires a category id")
			}
		}
	case OpGte, OpLte:
		switch f.Field {
		case "price":
			if _, ok := f.Value.(decimal.Decimal); !ok {
				return fmt.Errorf("price filter requires a decimal value")
			}
		case "stock_quantity":
			if _, ok := f.Value.(int); !ok {
				return fmt.Errorf("stock filter requires an integer value")
			}
		}
	}
	return nil
}

// PriceRange bounds a between filter, inclusive on both ends.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}
