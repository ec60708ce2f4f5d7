package domain

import "time"

// Comment is user feedback on a product or a store
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Username  string    `json:"username"`
	ProductID *int64    `json:"product_id" db:"product_id"`
	StoreID   *int64    `json:"store_id" db:"store_id"`
	Text      string    `json:"text" db:"text"`
	Rating    *int      `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
