package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodmart/internal/domain"
)

var (
	ErrShoppingListNotFound     = errors.New("shopping list not found")
	ErrShoppingListFinalized    = errors.New("shopping list is already finalized")
	ErrShoppingListItemNotFound = errors.New("shopping list item not found")
)

// ShoppingListRepository defines the interface for shopping list data access.
// Every read returns lists with their items loaded.
type ShoppingListRepository interface {
	Create(ctx context.Context, list *domain.ShoppingList) error
	FindByID(ctx context.Context, id int64) (*domain.ShoppingList, error)
	FindOpenByUser(ctx context.Context, userID int64) (*domain.ShoppingList, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.ShoppingList, error)
	AddItemQuantity(ctx context.Context, listID, productID int64, quantity int) (*domain.ShoppingListItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Finalize(ctx context.Context, userID, listID int64) error
}

type shoppingListRepository struct {
	db *sql.DB
}

// NewShoppingListRepository creates a new instance of ShoppingListRepository
func NewShoppingListRepository(db *sql.DB) ShoppingListRepository {
	return &shoppingListRepository{db: db}
}

const shoppingListSelect = `
	SELECT id, user_id, name, finalized, created_at
	FROM shopping_lists
`

func scanShoppingList(row rowScanner) (*domain.ShoppingList, error) {
	list := &domain.ShoppingList{Items: []domain.ShoppingListItem{}}
	err := row.Scan(&list.ID, &list.UserID, &list.Name, &list.Finalized, &list.CreatedAt)
	return list, err
}

// Create inserts an open list and fills in its ID and creation time
func (r *shoppingListRepository) Create(ctx context.Context, list *domain.ShoppingList) error {
	query := `
		INSERT INTO shopping_lists (user_id, name, finalized)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, list.UserID, list.Name, list.Finalized).
		Scan(&list.ID, &list.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create shopping list: %w", err)
	}

	if list.Items == nil {
		list.Items = []domain.ShoppingListItem{}
	}

	return nil
}

func (r *shoppingListRepository) FindByID(ctx context.Context, id int64) (*domain.ShoppingList, error) {
	return r.findOne(ctx, shoppingListSelect+`WHERE id = $1`, id)
}

// FindOpenByUser returns the newest open list of a user
func (r *shoppingListRepository) FindOpenByUser(ctx context.Context, userID int64) (*domain.ShoppingList, error) {
	query := shoppingListSelect + `
		WHERE user_id = $1 AND NOT finalized
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, userID)
}

func (r *shoppingListRepository) findOne(ctx context.Context, query string, arg int64) (*domain.ShoppingList, error) {
	list, err := scanShoppingList(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShoppingListNotFound
		}
		return nil, fmt.Errorf("failed to find shopping list: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.ShoppingList{list}); err != nil {
		return nil, err
	}

	return list, nil
}

// ListByUser returns all lists of a user, newest first
func (r *shoppingListRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.ShoppingList, error) {
	query := shoppingListSelect + `
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	defer rows.Close()

	lists := []*domain.ShoppingList{}
	for rows.Next() {
		list, err := scanShoppingList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		lists = append(lists, list)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shopping lists: %w", err)
	}

	if err := r.loadItems(ctx, lists); err != nil {
		return nil, err
	}

	return lists, nil
}

// loadItems fills the Items of every list with a single query
func (r *shoppingListRepository) loadItems(ctx context.Context, lists []*domain.ShoppingList) error {
	if len(lists) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.ShoppingList, len(lists))
	ids := make([]int64, 0, len(lists))
	for _, list := range lists {
		byID[list.ID] = list
		ids = append(ids, list.ID)
	}

	query := `
		SELECT i.id, i.list_id, i.product_id, p.name, i.purchased_item_id, i.notes, i.quantity
		FROM shopping_list_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.list_id = ANY($1)
		ORDER BY i.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load shopping list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ShoppingListItem
		if err := rows.Scan(
			&item.ID,
			&item.ListID,
			&item.ProductID,
			&item.ProductName,
			&item.PurchasedItemID,
			&item.Notes,
			&item.Quantity,
		); err != nil {
			return fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		list := byID[item.ListID]
		list.Items = append(list.Items, item)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating shopping list items: %w", err)
	}

	return nil
}

// AddItemQuantity adds quantity to the (list, product) line, creating it when
// absent. Concurrent adds for the same pair accumulate instead of failing.
func (r *shoppingListRepository) AddItemQuantity(ctx context.Context, listID, productID int64, quantity int) (*domain.ShoppingListItem, error) {
	query := `
		INSERT INTO shopping_list_items (list_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (list_id, product_id)
		DO UPDATE SET quantity = shopping_list_items.quantity + EXCLUDED.quantity
		RETURNING id, list_id, product_id, purchased_item_id, notes, quantity
	`

	item := &domain.ShoppingListItem{}
	err := r.db.QueryRowContext(ctx, query, listID, productID, quantity).Scan(
		&item.ID,
		&item.ListID,
		&item.ProductID,
		&item.PurchasedItemID,
		&item.Notes,
		&item.Quantity,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("failed to add shopping list item: %w", err)
	}

	return item, nil
}

// RemoveItem deletes an item from an open list owned by userID
func (r *shoppingListRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	query := `
		DELETE FROM shopping_list_items i
		USING shopping_lists l
		WHERE i.id = $1 AND i.list_id = l.id AND l.user_id = $2 AND NOT l.finalized
	`

	result, err := r.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove shopping list item: %w", err)
	}

	return expectAffected(result, ErrShoppingListItemNotFound)
}

// Finalize closes an open list owned by userID. Finalizing twice fails with
// ErrShoppingListFinalized.
func (r *shoppingListRepository) Finalize(ctx context.Context, userID, listID int64) error {
	return finalizeList(ctx, r.db, userID, listID)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func finalizeList(ctx context.Context, q execQuerier, userID, listID int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE shopping_lists SET finalized = TRUE WHERE id = $1 AND user_id = $2 AND NOT finalized`,
		listID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize shopping list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM shopping_lists WHERE id = $1 AND user_id = $2)`,
		listID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check shopping list: %w", err)
	}
	if exists {
		return ErrShoppingListFinalized
	}
	return ErrShoppingListNotFound
}
