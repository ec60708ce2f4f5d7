package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodmart/internal/domain"
)

var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreAlreadyExists = errors.New("store with this name already exists")
)

// StoreRepository defines the interface for store data access
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	Update(ctx context.Context, store *domain.Store) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Store, error)
	FindByID(ctx context.Context, id int64) (*domain.Store, error)
}

type storeRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new instance of StoreRepository
func NewStoreRepository(db *sql.DB) StoreRepository {
	return &storeRepository{db: db}
}

// Create inserts a new store and fills in its generated ID
func (r *storeRepository) Create(ctx context.Context, store *domain.Store) error {
	query := `
		INSERT INTO stores (name, url, logo_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, store.Name, store.URL, store.LogoURL).Scan(&store.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStoreAlreadyExists
		}
		return fmt.Errorf("failed to create store: %w", err)
	}

	return nil
}

// Update overwrites every editable field of a store
func (r *storeRepository) Update(ctx context.Context, store *domain.Store) error {
	query := `
		UPDATE stores
		SET name = $2, url = $3, logo_url = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, store.ID, store.Name, store.URL, store.LogoURL)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStoreAlreadyExists
		}
		return fmt.Errorf("failed to update store: %w", err)
	}

	return expectAffected(result, ErrStoreNotFound)
}

// Delete removes a store together with its offers
func (r *storeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}

	return expectAffected(result, ErrStoreNotFound)
}

// List retrieves all stores ordered by name
func (r *storeRepository) List(ctx context.Context) ([]*domain.Store, error) {
	query := `
		SELECT id, name, url, logo_url
		FROM stores
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	stores := []*domain.Store{}
	for rows.Next() {
		store := &domain.Store{}
		if err := rows.Scan(&store.ID, &store.Name, &store.URL, &store.LogoURL); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, store)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}

	return stores, nil
}

// FindByID retrieves a store by ID
func (r *storeRepository) FindByID(ctx context.Context, id int64) (*domain.Store, error) {
	query := `
		SELECT id, name, url, logo_url
		FROM stores
		WHERE id = $1
	`

	store := &domain.Store{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&store.ID, &store.Name, &store.URL, &store.LogoURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to find store by ID: %w", err)
	}

	return store, nil
}
