package service

import (
	"context"
	"testing"

	"foodmart/internal/domain"
	"foodmart/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestCommentCreate_Validation(t *testing.T) {
	service := NewCommentService(newMockCommentRepository())
	ctx := context.Background()

	tests := []struct {
		name    string
		comment domain.Comment
		wantErr error
	}{
		{
			name:    "no target",
			comment: domain.Comment{Text: "Ótimo"},
			wantErr: ErrCommentTargetRequired,
		},
		{
			name:    "blank text",
			comment: domain.Comment{ProductID: int64Ptr(1), Text: "   "},
			wantErr: ErrCommentTextRequired,
		},
		{
			name:    "rating too high",
			comment: domain.Comment{StoreID: int64Ptr(1), Text: "Boa loja", Rating: intPtr(6)},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "rating too low",
			comment: domain.Comment{StoreID: int64Ptr(1), Text: "Boa loja", Rating: intPtr(0)},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "product without rating",
			comment: domain.Comment{ProductID: int64Ptr(1), Text: " Chegou rápido "},
		},
		{
			name:    "product and store with rating",
			comment: domain.Comment{ProductID: int64Ptr(1), StoreID: int64Ptr(2), Text: "Ok", Rating: intPtr(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment := tt.comment
			err := service.Create(ctx, 9, &comment)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(9), comment.UserID)
			assert.NotZero(t, comment.ID)
		})
	}
}

func TestCommentDelete_OwnerOrStaff(t *testing.T) {
	repo := newMockCommentRepository()
	service := NewCommentService(repo)
	ctx := context.Background()

	first := &domain.Comment{ProductID: int64Ptr(1), Text: "Bom"}
	second := &domain.Comment{ProductID: int64Ptr(1), Text: "Ruim"}
	require.NoError(t, service.Create(ctx, 1, first))
	require.NoError(t, service.Create(ctx, 1, second))

	assert.ErrorIs(t, service.Delete(ctx, 2, domain.RoleUser, first.ID), ErrForbidden)
	assert.NoError(t, service.Delete(ctx, 1, domain.RoleUser, first.ID))
	assert.NoError(t, service.Delete(ctx, 2, domain.RoleStaff, second.ID))
	assert.ErrorIs(t, service.Delete(ctx, 1, domain.RoleUser, first.ID), repository.ErrCommentNotFound)

	comments, err := service.ListByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
