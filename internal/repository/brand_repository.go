package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodmart/internal/domain"
)

var (
	ErrBrandNotFound      = errors.New("brand not found")
	ErrBrandAlreadyExists = errors.New("brand with this name already exists")
)

// BrandRepository defines the interface for brand data access
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	Update(ctx context.Context, brand *domain.Brand) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Brand, error)
	FindByID(ctx context.Context, id int64) (*domain.Brand, error)
}

type brandRepository struct {
	db *sql.DB
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO brands (name) VALUES ($1) RETURNING id`, brand.Name).
		Scan(&brand.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to create brand: %w", err)
	}

	return nil
}

func (r *brandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	result, err := r.db.ExecContext(ctx, `UPDATE brands SET name = $2 WHERE id = $1`, brand.ID, brand.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to update brand: %w", err)
	}

	return expectAffected(result, ErrBrandNotFound)
}

func (r *brandRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	return expectAffected(result, ErrBrandNotFound)
}

func (r *brandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM brands ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*domain.Brand{}
	for rows.Next() {
		brand := &domain.Brand{}
		if err := rows.Scan(&brand.ID, &brand.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	return brands, nil
}

func (r *brandRepository) FindByID(ctx context.Context, id int64) (*domain.Brand, error) {
	brand := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM brands WHERE id = $1`, id).
		Scan(&brand.ID, &brand.Name)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand by ID: %w", err)
	}

	return brand, nil
}
