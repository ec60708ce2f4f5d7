package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"foodmart/internal/domain"
	"foodmart/internal/metrics"
	"foodmart/internal/repository"

	"golang.org/x/text/unicode/norm"
)

// CatalogService serves the public, approved-only view of the catalog
type CatalogService interface {
	// GetProductInfo returns nil without error when the product is not in the catalog
	GetProductInfo(ctx context.Context, productID int64) (*domain.ProductDetail, error)
	SearchProducts(ctx context.Context, query string) ([]domain.ProductSummary, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	offerRepo   repository.OfferRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, offerRepo repository.OfferRepository) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		offerRepo:   offerRepo,
	}
}

// GetProductInfo aggregates a product with all its offers, cheapest first.
// The minimum price is the price of the first offer.
func (s *catalogService) GetProductInfo(ctx context.Context, productID int64) (*domain.ProductDetail, error) {
	product, err := s.productRepo.FindCatalogProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	offers, err := s.offerRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}

	// Stable: equal prices keep the repository order
	slices.SortStableFunc(offers, func(a, b *domain.OfferListing) int {
		return a.Price.Cmp(b.Price)
	})

	detail := &domain.ProductDetail{
		ProductSummary: product.Summary(),
		Offers:         make([]domain.OfferSummary, 0, len(offers)),
	}
	for _, offer := range offers {
		detail.Offers = append(detail.Offers, domain.OfferSummary{
			Store:      offer.StoreName,
			Price:      domain.PriceValue(offer.Price),
			CapturedAt: domain.CaptureTimestamp(offer.CapturedAt),
		})
	}

	if len(detail.Offers) > 0 {
		minPrice := detail.Offers[0].Price
		detail.MinPrice = &minPrice
	}

	return detail, nil
}

// SearchProducts matches query against name, description, category and
// brand. Blank queries list the whole catalog.
func (s *catalogService) SearchProducts(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	query = norm.NFC.String(strings.TrimSpace(query))

	products, err := s.productRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	summaries := make([]domain.ProductSummary, 0, len(products))
	for _, product := range products {
		summaries = append(summaries, product.Summary())
	}

	metrics.ObserveSearch(len(summaries))
	return summaries, nil
}
