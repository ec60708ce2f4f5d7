package domain

// CartEntry is one line of a session cart
type CartEntry struct {
	Quantity int `json:"quantity"`
}

// SessionCart maps a product id, kept as a string key, to its cart entry
type SessionCart map[string]CartEntry

// TotalQuantity sums the quantities of every line
func (c SessionCart) TotalQuantity() int {
	total := 0
	for _, entry := range c {
		total += entry.Quantity
	}
	return total
}

// CartItem is a priced cart line
type CartItem struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"nome"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"preco"`
	Total     float64 `json:"total_item"`
}

// CartSummary is returned by every cart read and mutation
type CartSummary struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

// MergeResult reports what a session cart merge did
type MergeResult struct {
	ListID  int64 `json:"list_id"`
	Merged  int   `json:"merged"`
	Skipped int   `json:"skipped"`
}
