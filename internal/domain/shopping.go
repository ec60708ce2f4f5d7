package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultListName names lists created implicitly from a session cart
const DefaultListName = "Minha Lista"

// ShoppingList is a user-owned collection of products. A list starts open and
// becomes finalized exactly once; the open list acts as the user's cart.
type ShoppingList struct {
	ID        int64              `json:"id" db:"id"`
	UserID    int64              `json:"user_id" db:"user_id"`
	Name      string             `json:"name" db:"name"`
	Finalized bool               `json:"finalized" db:"finalized"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	Items     []ShoppingListItem `json:"items"`
}

// ShoppingListItem is a product line in a list, unique per (list, product)
type ShoppingListItem struct {
	ID              int64  `json:"id" db:"id"`
	ListID          int64  `json:"list_id" db:"list_id"`
	ProductID       int64  `json:"product_id" db:"product_id"`
	ProductName     string `json:"product_name"`
	PurchasedItemID *int64 `json:"purchased_item_id" db:"purchased_item_id"`
	Notes           string `json:"notes" db:"notes"`
	Quantity        int    `json:"quantity" db:"quantity"`
}

// PurchasedItem records a completed purchase and is never mutated
type PurchasedItem struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	StoreID     *int64          `json:"store_id" db:"store_id"`
	ProductID   *int64          `json:"product_id" db:"product_id"`
	PricePaid   decimal.Decimal `json:"price_paid" db:"price_paid"`
	PurchasedOn time.Time       `json:"purchased_on" db:"purchased_on"`
	StoreName   *string         `json:"store_name,omitempty"`
	ProductName *string         `json:"product_name,omitempty"`
}
