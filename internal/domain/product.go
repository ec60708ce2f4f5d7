package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a named product grouping
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Brand is a named product manufacturer
type Brand struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Store is a shop where offers are observed
type Store struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	URL     string `json:"url" db:"url"`
	LogoURL string `json:"logo_url" db:"logo_url"`
}

// Product represents a product in the catalog. Only approved products are
// visible through the public catalog.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	CategoryID  *int64    `json:"category_id" db:"category_id"`
	BrandID     *int64    `json:"brand_id" db:"brand_id"`
	AddedBy     *int64    `json:"added_by" db:"added_by"`
	Approved    bool      `json:"approved" db:"approved"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Offer is an observed price of a product at a store
type Offer struct {
	ID         int64           `json:"id" db:"id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	StoreID    int64           `json:"store_id" db:"store_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	CapturedAt time.Time       `json:"captured_at" db:"captured_at"`
}

// OfferListing is an offer joined with the names it references
type OfferListing struct {
	Offer
	ProductName string `json:"product_name"`
	StoreName   string `json:"store_name"`
}

// CatalogProduct is a product row joined with its lookup names and, when
// aggregated, the lowest price among its offers
type CatalogProduct struct {
	Product
	CategoryName *string
	BrandName    *string
	MinPrice     decimal.NullDecimal
}
