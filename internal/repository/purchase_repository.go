package repository

import (
	"context"
	"database/sql"
	"fmt"

	"foodmart/internal/domain"
)

// PurchaseRepository defines the interface for purchase history data access
type PurchaseRepository interface {
	RecordCheckout(ctx context.Context, userID int64, items []*domain.PurchasedItem, listID *int64) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.PurchasedItem, error)
}

type purchaseRepository struct {
	db *sql.DB
}

// NewPurchaseRepository creates a new instance of PurchaseRepository
func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// RecordCheckout stores the purchased items in one transaction. When listID
// is set, each list line of a purchased product is linked to its purchase and
// the list is finalized.
func (r *purchaseRepository) RecordCheckout(ctx context.Context, userID int64, items []*domain.PurchasedItem, listID *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkout: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO purchased_items (user_id, store_id, product_id, price_paid, purchased_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	link := `
		UPDATE shopping_list_items
		SET purchased_item_id = $1
		WHERE list_id = $2 AND product_id = $3 AND purchased_item_id IS NULL
	`

	for _, item := range items {
		item.UserID = userID
		err := tx.QueryRowContext(ctx, insert,
			userID, item.StoreID, item.ProductID, item.PricePaid, item.PurchasedOn,
		).Scan(&item.ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrInvalidReference
			}
			return fmt.Errorf("failed to record purchase: %w", err)
		}

		if listID != nil && item.ProductID != nil {
			if _, err := tx.ExecContext(ctx, link, item.ID, *listID, *item.ProductID); err != nil {
				return fmt.Errorf("failed to link purchase to list: %w", err)
			}
		}
	}

	if listID != nil {
		if err := finalizeList(ctx, tx, userID, *listID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout: %w", err)
	}

	return nil
}

// ListByUser returns a user's purchases, most recent first
func (r *purchaseRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.PurchasedItem, error) {
	query := `
		SELECT pi.id, pi.user_id, pi.store_id, pi.product_id, pi.price_paid, pi.purchased_on, s.name, p.name
		FROM purchased_items pi
		LEFT JOIN stores s ON s.id = pi.store_id
		LEFT JOIN products p ON p.id = pi.product_id
		WHERE pi.user_id = $1
		ORDER BY pi.purchased_on DESC, pi.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	items := []*domain.PurchasedItem{}
	for rows.Next() {
		item := &domain.PurchasedItem{}
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.StoreID,
			&item.ProductID,
			&item.PricePaid,
			&item.PurchasedOn,
			&item.StoreName,
			&item.ProductName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return items, nil
}
