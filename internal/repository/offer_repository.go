package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodmart/internal/domain"
)

var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferAlreadyExists = errors.New("offer already captured for this product, store and time")
)

// OfferRepository defines the interface for offer data access
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	Update(ctx context.Context, offer *domain.Offer) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Offer, error)
	List(ctx context.Context) ([]*domain.OfferListing, error)
	ListByProduct(ctx context.Context, productID int64) ([]*domain.OfferListing, error)
	FindCheapest(ctx context.Context, productID int64) (*domain.OfferListing, error)
}

type offerRepository struct {
	db *sql.DB
}

// NewOfferRepository creates a new instance of OfferRepository
func NewOfferRepository(db *sql.DB) OfferRepository {
	return &offerRepository{db: db}
}

const offerListingSelect = `
	SELECT o.id, o.product_id, o.store_id, o.price, o.captured_at, p.name, s.name
	FROM offers o
	JOIN products p ON p.id = o.product_id
	JOIN stores s ON s.id = o.store_id
`

func scanOfferListing(row rowScanner) (*domain.OfferListing, error) {
	listing := &domain.OfferListing{}
	err := row.Scan(
		&listing.ID,
		&listing.ProductID,
		&listing.StoreID,
		&listing.Price,
		&listing.CapturedAt,
		&listing.ProductName,
		&listing.StoreName,
	)
	return listing, err
}

func (r *offerRepository) queryListings(ctx context.Context, query string, args ...any) ([]*domain.OfferListing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	listings := []*domain.OfferListing{}
	for rows.Next() {
		listing, err := scanOfferListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		listings = append(listings, listing)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return listings, nil
}

// Create always inserts a new observation. A zero CapturedAt is stamped by
// the database.
func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (product_id, store_id, price, captured_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()))
		RETURNING id, captured_at
	`

	capturedAt := sql.NullTime{Time: offer.CapturedAt, Valid: !offer.CapturedAt.IsZero()}

	err := r.db.QueryRowContext(ctx, query, offer.ProductID, offer.StoreID, offer.Price, capturedAt).
		Scan(&offer.ID, &offer.CapturedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrOfferAlreadyExists
		case isForeignKeyViolation(err):
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

// Update changes the product, store and price of an existing offer. The
// capture time stays as recorded.
func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	query := `
		UPDATE offers
		SET product_id = $2, store_id = $3, price = $4
		WHERE id = $1
		RETURNING captured_at
	`

	err := r.db.QueryRowContext(ctx, query, offer.ID, offer.ProductID, offer.StoreID, offer.Price).
		Scan(&offer.CapturedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrOfferNotFound
		case isUniqueViolation(err):
			return ErrOfferAlreadyExists
		case isForeignKeyViolation(err):
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to update offer: %w", err)
	}

	return nil
}

func (r *offerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}

	return expectAffected(result, ErrOfferNotFound)
}

func (r *offerRepository) FindByID(ctx context.Context, id int64) (*domain.Offer, error) {
	query := `
		SELECT id, product_id, store_id, price, captured_at
		FROM offers
		WHERE id = $1
	`

	offer := &domain.Offer{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&offer.ID, &offer.ProductID, &offer.StoreID, &offer.Price, &offer.CapturedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find offer by ID: %w", err)
	}

	return offer, nil
}

// List returns every offer, newest capture first
func (r *offerRepository) List(ctx context.Context) ([]*domain.OfferListing, error) {
	return r.queryListings(ctx, offerListingSelect+`ORDER BY o.captured_at DESC, o.id DESC`)
}

// ListByProduct returns the offers of one product, newest capture first
func (r *offerRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.OfferListing, error) {
	query := offerListingSelect + `
		WHERE o.product_id = $1
		ORDER BY o.captured_at DESC, o.id DESC
	`
	return r.queryListings(ctx, query, productID)
}

// FindCheapest returns the lowest priced offer of a product
func (r *offerRepository) FindCheapest(ctx context.Context, productID int64) (*domain.OfferListing, error) {
	query := offerListingSelect + `
		WHERE o.product_id = $1
		ORDER BY o.price ASC, o.captured_at DESC
		LIMIT 1
	`

	listing, err := scanOfferListing(r.db.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find cheapest offer: %w", err)
	}

	return listing, nil
}
