package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodmart/internal/domain"
	"foodmart/internal/repository"
)

var (
	ErrCommentTargetRequired = errors.New("comment must target a product or a store")
	ErrCommentTextRequired   = errors.New("comment text is required")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrForbidden             = errors.New("not allowed to modify this resource")
)

// CommentService handles product and store feedback
type CommentService interface {
	Create(ctx context.Context, userID int64, comment *domain.Comment) error
	Delete(ctx context.Context, userID int64, role string, commentID int64) error
	ListByProduct(ctx context.Context, productID int64) ([]*domain.Comment, error)
	ListByStore(ctx context.Context, storeID int64) ([]*domain.Comment, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(commentRepo repository.CommentRepository) CommentService {
	return &commentService{commentRepo: commentRepo}
}

func (s *commentService) Create(ctx context.Context, userID int64, comment *domain.Comment) error {
	if comment.ProductID == nil && comment.StoreID == nil {
		return ErrCommentTargetRequired
	}
	comment.Text = strings.TrimSpace(comment.Text)
	if comment.Text == "" {
		return ErrCommentTextRequired
	}
	if comment.Rating != nil && (*comment.Rating < 1 || *comment.Rating > 5) {
		return ErrInvalidRating
	}

	comment.UserID = userID
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return err
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// Delete removes a comment. Only its author or staff may do so.
func (s *commentService) Delete(ctx context.Context, userID int64, role string, commentID int64) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return err
		}
		return fmt.Errorf("failed to load comment: %w", err)
	}

	if comment.UserID != userID && role != domain.RoleStaff {
		return ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *commentService) ListByProduct(ctx context.Context, productID int64) ([]*domain.Comment, error) {
	comments, err := s.commentRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *commentService) ListByStore(ctx context.Context, storeID int64) ([]*domain.Comment, error) {
	comments, err := s.commentRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
