package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodmart/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductFilter narrows the management listing
type ProductFilter struct {
	PendingOnly bool
}

// ProductRepository defines the interface for product data access.
// Catalog methods only ever return approved products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.CatalogProduct, error)

	FindCatalogProduct(ctx context.Context, id int64) (*domain.CatalogProduct, error)
	FindCatalogProducts(ctx context.Context, ids []int64) ([]*domain.CatalogProduct, error)
	Search(ctx context.Context, query string) ([]*domain.CatalogProduct, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// catalogSelect joins a product with its lookup names and lowest offer price.
// Callers append WHERE conditions before catalogGroupBy.
const catalogSelect = `
	SELECT p.id, p.name, p.description, p.image_url, p.category_id, p.brand_id,
	       p.added_by, p.approved, p.created_at, c.name, b.name, MIN(o.price)
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN offers o ON o.product_id = p.id
`

const catalogGroupBy = `
	GROUP BY p.id, c.name, b.name
	ORDER BY p.name ASC, p.id ASC
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogProduct(row rowScanner) (*domain.CatalogProduct, error) {
	product := &domain.CatalogProduct{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.ImageURL,
		&product.CategoryID,
		&product.BrandID,
		&product.AddedBy,
		&product.Approved,
		&product.CreatedAt,
		&product.CategoryName,
		&product.BrandName,
		&product.MinPrice,
	)
	return product, err
}

func (r *productRepository) queryCatalog(ctx context.Context, query string, args ...any) ([]*domain.CatalogProduct, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.CatalogProduct{}
	for rows.Next() {
		product, err := scanCatalogProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Create inserts a new product and fills in its ID and creation time
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, image_url, category_id, brand_id, added_by, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.ImageURL,
		product.CategoryID,
		product.BrandID,
		product.AddedBy,
		product.Approved,
	).Scan(&product.ID, &product.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites the descriptive fields of a product. Approval is changed
// only through SetApproved.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, image_url = $4, category_id = $5, brand_id = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.ImageURL,
		product.CategoryID,
		product.BrandID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectAffected(result, ErrProductNotFound)
}

// Delete removes a product; its offers and list items go with it
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectAffected(result, ErrProductNotFound)
}

func (r *productRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("failed to set product approval: %w", err)
	}

	return expectAffected(result, ErrProductNotFound)
}

// FindByID retrieves a product regardless of its approval state
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, image_url, category_id, brand_id, added_by, approved, created_at
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.ImageURL,
		&product.CategoryID,
		&product.BrandID,
		&product.AddedBy,
		&product.Approved,
		&product.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Exists reports whether a product row exists at all
func (r *productRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// List returns every product for management, approved or not
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.CatalogProduct, error) {
	query := catalogSelect + `WHERE ($1::boolean = FALSE OR p.approved = FALSE)` + catalogGroupBy
	return r.queryCatalog(ctx, query, filter.PendingOnly)
}

// FindCatalogProduct retrieves an approved product with its lookup names
func (r *productRepository) FindCatalogProduct(ctx context.Context, id int64) (*domain.CatalogProduct, error) {
	query := catalogSelect + `WHERE p.id = $1 AND p.approved` + catalogGroupBy

	product, err := scanCatalogProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find catalog product: %w", err)
	}

	return product, nil
}

// FindCatalogProducts retrieves the approved products among ids in one query.
// Unknown or unapproved ids are simply absent from the result.
func (r *productRepository) FindCatalogProducts(ctx context.Context, ids []int64) ([]*domain.CatalogProduct, error) {
	if len(ids) == 0 {
		return []*domain.CatalogProduct{}, nil
	}

	query := catalogSelect + `WHERE p.id = ANY($1) AND p.approved` + catalogGroupBy
	return r.queryCatalog(ctx, query, ids)
}

// Search matches query case-insensitively as a substring of the product
// name, description, category name or brand name. An empty query matches
// every approved product. Each product appears once, ordered by name.
func (r *productRepository) Search(ctx context.Context, query string) ([]*domain.CatalogProduct, error) {
	sqlQuery := catalogSelect + `
		WHERE p.approved
		  AND ($1::text = '' OR p.name ILIKE $2 OR p.description ILIKE $2
		       OR c.name ILIKE $2 OR b.name ILIKE $2)
	` + catalogGroupBy

	return r.queryCatalog(ctx, sqlQuery, query, containsPattern(query))
}
