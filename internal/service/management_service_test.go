package service

import (
	"context"
	"testing"

	"foodmart/internal/domain"
	"foodmart/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManagementService() (ManagementService, *mockStoreRepository, *mockProductRepository, *mockOfferRepository) {
	stores := newMockStoreRepository()
	products := newMockProductRepository()
	offers := newMockOfferRepository()
	return NewManagementService(stores, nil, nil, products, offers), stores, products, offers
}

func TestCreateProduct_StaffApprovedSuggestionPending(t *testing.T) {
	service, _, products, _ := newTestManagementService()
	ctx := context.Background()

	staffProduct := &domain.Product{Name: " Console "}
	require.NoError(t, service.CreateProduct(ctx, 1, staffProduct))
	assert.True(t, products.products[staffProduct.ID].Approved)
	assert.Equal(t, "Console", staffProduct.Name)
	assert.Equal(t, int64(1), *staffProduct.AddedBy)

	suggestion := &domain.Product{Name: "Pão de queijo", Approved: true}
	require.NoError(t, service.SuggestProduct(ctx, 5, suggestion))
	assert.False(t, products.products[suggestion.ID].Approved)
	assert.Equal(t, int64(5), *suggestion.AddedBy)

	pending, err := service.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, suggestion.ID, pending[0].ID)

	require.NoError(t, service.ApproveProduct(ctx, suggestion.ID))
	assert.True(t, products.products[suggestion.ID].Approved)

	assert.ErrorIs(t, service.ApproveProduct(ctx, 999), repository.ErrProductNotFound)
	assert.ErrorIs(t, service.CreateProduct(ctx, 1, &domain.Product{Name: " "}), ErrNameRequired)
}

func TestCreateOffer_PriceValidation(t *testing.T) {
	service, _, _, offers := newTestManagementService()
	ctx := context.Background()

	tests := []struct {
		price string
		valid bool
	}{
		{"2300.50", true},
		{"0.01", true},
		{"99999999.99", true},
		{"0", false},
		{"-1.00", false},
		{"10.005", false},
		{"100000000.00", false},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			err := service.CreateOffer(ctx, &domain.Offer{ProductID: 1, StoreID: 1, Price: decimal.RequireFromString(tt.price)})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPrice)
			}
		})
	}

	assert.Len(t, offers.offers[1], 4)
}

func TestStoreCRUD(t *testing.T) {
	service, _, _, _ := newTestManagementService()
	ctx := context.Background()

	store := &domain.Store{Name: "Loja A", URL: "https://loja-a.example"}
	require.NoError(t, service.CreateStore(ctx, store))
	assert.ErrorIs(t, service.CreateStore(ctx, &domain.Store{Name: "Loja A"}), repository.ErrStoreAlreadyExists)

	store.Name = "Loja A+"
	require.NoError(t, service.UpdateStore(ctx, store))

	got, err := service.GetStore(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loja A+", got.Name)

	require.NoError(t, service.DeleteStore(ctx, store.ID))
	_, err = service.GetStore(ctx, store.ID)
	assert.ErrorIs(t, err, repository.ErrStoreNotFound)
	assert.ErrorIs(t, service.DeleteStore(ctx, store.ID), repository.ErrStoreNotFound)
}
