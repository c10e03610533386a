package interfaces

import (
	"context"

	"github.com/trendpin/trendpin/internal/models"
)

// ProductSource discovers trending products from the catalog site
type ProductSource interface {
	// FetchTrending returns up to maxCount deduplicated products for a category
	FetchTrending(ctx context.Context, category string, maxCount int) ([]models.Product, error)

	// FetchDetail scrapes a product detail page. Failure is non-fatal for
	// callers; the search listing fields remain usable.
	FetchDetail(ctx context.Context, url string) (*models.ProductDetail, error)
}

// PageParser extracts structured product data from raw catalog HTML
type PageParser interface {
	ParseSearchResults(html string) ([]models.Product, error)
	ParseProductDetail(html string) (*models.ProductDetail, error)
}
