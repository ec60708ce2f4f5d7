package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodmart/internal/domain"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
)

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Comment, error)
	ListByProduct(ctx context.Context, productID int64) ([]*domain.Comment, error)
	ListByStore(ctx context.Context, storeID int64) ([]*domain.Comment, error)
}

type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentSelect = `
	SELECT c.id, c.user_id, u.username, c.product_id, c.store_id, c.text, c.rating, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

func scanComment(row rowScanner) (*domain.Comment, error) {
	comment := &domain.Comment{}
	err := row.Scan(
		&comment.ID,
		&comment.UserID,
		&comment.Username,
		&comment.ProductID,
		&comment.StoreID,
		&comment.Text,
		&comment.Rating,
		&comment.CreatedAt,
	)
	return comment, err
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (user_id, product_id, store_id, text, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		comment.UserID, comment.ProductID, comment.StoreID, comment.Text, comment.Rating,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return expectAffected(result, ErrCommentNotFound)
}

func (r *commentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+`WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment by ID: %w", err)
	}

	return comment, nil
}

// ListByProduct returns the comments on a product, newest first
func (r *commentRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.Comment, error) {
	return r.list(ctx, commentSelect+`WHERE c.product_id = $1 ORDER BY c.created_at DESC, c.id DESC`, productID)
}

// ListByStore returns the comments on a store, newest first
func (r *commentRepository) ListByStore(ctx context.Context, storeID int64) ([]*domain.Comment, error) {
	return r.list(ctx, commentSelect+`WHERE c.store_id = $1 ORDER BY c.created_at DESC, c.id DESC`, storeID)
}

func (r *commentRepository) list(ctx context.Context, query string, id int64) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
