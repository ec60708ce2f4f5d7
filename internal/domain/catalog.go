package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSummary is the list-view shape served by the catalog API
type ProductSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"nome"`
	ImageURL    string   `json:"imagem_url"`
	Description string   `json:"descricao"`
	Category    *string  `json:"categoria"`
	Brand       *string  `json:"marca"`
	MinPrice    *float64 `json:"menor_preco"`
}

// OfferSummary is one offer inside a product detail
type OfferSummary struct {
	Store      string  `json:"loja"`
	Price      float64 `json:"preco"`
	CapturedAt string  `json:"data_captura"`
}

// ProductDetail is a product summary plus every offer, cheapest first
type ProductDetail struct {
	ProductSummary
	Offers []OfferSummary `json:"ofertas"`
}

// PriceValue converts a stored decimal price to the float served over the API,
// rounded to cents.
func PriceValue(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// CaptureTimestamp formats an offer capture time as ISO-8601
func CaptureTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Summary shapes a catalog row for the API
func (p *CatalogProduct) Summary() ProductSummary {
	summary := ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Category:    p.CategoryName,
		Brand:       p.BrandName,
	}
	if p.MinPrice.Valid {
		price := PriceValue(p.MinPrice.Decimal)
		summary.MinPrice = &price
	}
	return summary
}
