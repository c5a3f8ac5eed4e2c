package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/storefrontlabs/storefront-backend/pkg/config"
	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefrontlabs/storefront-backend/pkg/errors"
	"github.com/storefrontlabs/storefront-backend/pkg/logger"
)

const defaultImportStock = 25

// sourceProduct is the upstream catalog feed shape.
type sourceProduct struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

type importRepository interface {
	UpsertProductByExternalID(ctx context.Context, product *models.Product, overwrite bool) (bool, error)
	FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
}

// Importer pulls the external product feed into the local catalog.
type Importer struct {
	repo importRepository
	http *http.Client
	cfg  config.ImportConfig
	logg *logger.Logger
}

// NewImporter constructs an importer with the provided dependencies.
func NewImporter(repo importRepository, cfg config.ImportConfig, logg *logger.Logger) (*Importer, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Importer{
		repo: repo,
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		logg: logg,
	}, nil
}

// Run fetches the feed and upserts every product. Individual row failures are
// collected and returned together so one bad row does not abort the run.
// Existing products are only refreshed when the force flag is set; a limit
// above zero caps how many feed rows are processed.
func (i *Importer) Run(ctx context.Context) (*ImportSummary, error) {
	products, err := i.fetch(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch product feed")
	}
	if i.cfg.Limit > 0 && len(products) > i.cfg.Limit {
		products = products[:i.cfg.Limit]
	}

	summary := &ImportSummary{}
	var rowErrs error
	for _, src := range products {
		written, err := i.importOne(ctx, src)
		if err != nil {
			summary.Skipped++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("product %d: %w", src.ID, err))
			continue
		}
		if !written {
			summary.Skipped++
			continue
		}
		summary.Imported++
	}

	fields := map[string]any{"imported": summary.Imported, "skipped": summary.Skipped}
	i.logg.Info(i.logg.WithFields(ctx, fields), "catalog import finished")

	return summary, rowErrs
}

func (i *Importer) fetch(ctx context.Context) ([]sourceProduct, error) {
	url := strings.TrimRight(i.cfg.SourceURL, "/") + "/products"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	var products []sourceProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return products, nil
}

func (i *Importer) importOne(ctx context.Context, src sourceProduct) (bool, error) {
	title := strings.TrimSpace(src.Title)
	if src.ID <= 0 || title == "" {
		return false, fmt.Errorf("missing id or title")
	}
	if src.Price < 0 {
		return false, fmt.Errorf("negative price %f", src.Price)
	}

	product := &models.Product{
		Title:         title,
		Price:         decimal.NewFromFloat(src.Price).Round(2),
		StockQuantity: defaultImportStock,
		ExternalID:    &src.ID,
	}
	if desc := strings.TrimSpace(src.Description); desc != "" {
		product.Description = &desc
	}
	if img := strings.TrimSpace(src.Image); img != "" {
		product.ImageURL = &img
	}

	if name := strings.TrimSpace(src.Category); name != "" {
		category, err := i.repo.FindOrCreateCategory(ctx, name)
		if err != nil {
			return false, fmt.Errorf("resolve category %q: %w", name, err)
		}
		product.CategoryID = &category.ID
	}

	written, err := i.repo.UpsertProductByExternalID(ctx, product, i.cfg.Force)
	if err != nil {
		return false, fmt.Errorf("upsert product: %w", err)
	}
	return written, nil
}
