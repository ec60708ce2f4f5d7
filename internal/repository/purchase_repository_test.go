package repository

import (
	"context"
	"testing"
	"time"

	"foodmart/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseRepository_RecordCheckoutLinksAndFinalizes(t *testing.T) {
	fx := seedCatalog(t)
	lists := NewShoppingListRepository(testDB)
	repo := NewPurchaseRepository(testDB)
	ctx := context.Background()
	user := createUser(t, false)

	list := createOpenList(t, user.ID)
	_, err := lists.AddItemQuantity(ctx, list.ID, fx.console.ID, 1)
	require.NoError(t, err)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	items := []*domain.PurchasedItem{{
		StoreID:     &fx.storeA.ID,
		ProductID:   &fx.console.ID,
		PricePaid:   decimal.RequireFromString("2300.00"),
		PurchasedOn: today,
	}}
	require.NoError(t, repo.RecordCheckout(ctx, user.ID, items, &list.ID))
	assert.NotZero(t, items[0].ID)

	stored, err := lists.FindByID(ctx, list.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finalized)
	require.NotNil(t, stored.Items[0].PurchasedItemID)
	assert.Equal(t, items[0].ID, *stored.Items[0].PurchasedItemID)

	history, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].StoreName)
	assert.Equal(t, "Loja A", *history[0].StoreName)
	assert.Equal(t, "2300", history[0].PricePaid.String())
}

func TestPurchaseRepository_CheckoutOfFinalizedListRollsBack(t *testing.T) {
	fx := seedCatalog(t)
	repo := NewPurchaseRepository(testDB)
	ctx := context.Background()
	user := createUser(t, false)

	list := createOpenList(t, user.ID)
	require.NoError(t, NewShoppingListRepository(testDB).Finalize(ctx, user.ID, list.ID))

	items := []*domain.PurchasedItem{{
		ProductID:   &fx.mouse.ID,
		PricePaid:   decimal.RequireFromString("150.00"),
		PurchasedOn: time.Now(),
	}}
	assert.ErrorIs(t, repo.RecordCheckout(ctx, user.ID, items, &list.ID), ErrShoppingListFinalized)

	history, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
