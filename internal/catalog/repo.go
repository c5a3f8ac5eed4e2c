package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
)

// Repository wires together product and category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindProductByID loads the product with its category.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts applies the query's filters and returns one page plus the
// unpaginated match count.
func (r *Repository) ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{})

	for _, f := range query.Filters {
		applied, err := applyFilter(tx, f)
		if err != nil {
			return nil, 0, err
		}
		tx = applied
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page.Normalize()
	var products []models.Product
	err := tx.
		Preload("Category").
		Order(orderClause(query)).
		Limit(page.PerPage).
		Offset(query.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func applyFilter(tx *gorm.DB, f Filter) (*gorm.DB, error) {
	switch {
	case f.Field == "title" && f.Op == OpContains:
		return tx.Where("title ILIKE ?", "%"+f.Value.(string)+"%"), nil
	case f.Field == "category" && f.Op == OpEq:
		return tx.Where("category_id = ?", f.Value.(uuid.UUID)), nil
	case f.Field == "price" && f.Op == OpGte:
		return tx.Where("price >= ?", f.Value.(decimal.Decimal)), nil
	case f.Field == "price" && f.Op == OpLte:
		return tx.Where("price <= ?", f.Value.(decimal.Decimal)), nil
	case f.Field == "price" && f.Op == OpBetween:
		bounds := f.Value.(PriceRange)
		return tx.Where("price BETWEEN ? AND ?", bounds.Min, bounds.Max), nil
	case f.Field == "stock_quantity" && f.Op == OpGte:
		return tx.Where("stock_quantity >= ?", f.Value.(int)), nil
	default:
		return nil, fmt.Errorf("unsupported filter %s %s", f.Field, f.Op)
	}
}

func orderClause(query ProductQuery) clause.OrderByColumn {
	sort := query.Sort
	desc := query.Desc
	if sort == "" {
		sort = "created_at"
		desc = true
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: sort},
		Desc:   desc,
	}
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpsertProductByExternalID inserts the product keyed by its external source
// id. With overwrite it refreshes an existing row, otherwise an existing row
// is left alone. Returns whether a row was written.
func (r *Repository) UpsertProductByExternalID(ctx context.Context, product *models.Product, overwrite bool) (bool, error) {
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}
	if overwrite {
		conflict.DoNothing = false
		conflict.DoUpdates = clause.AssignmentColumns([]string{
			"title", "description", "image_url", "price", "category_id", "updated_at",
		})
	}
	tx := r.db.WithContext(ctx).Clauses(conflict).Create(product)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindOrCreateCategory returns the category with the given name, creating it
// when missing.
func (r *Repository) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where(models.Category{Name: name}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
