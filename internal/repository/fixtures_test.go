package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"foodmart/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixtureSeq atomic.Int64

func resetTables(t *testing.T) {
	t.Helper()

	_, err := testDB.Exec(`
		TRUNCATE comments, shopping_list_items, shopping_lists, purchased_items,
		         offers, products, stores, brands, categories, refresh_tokens, users
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
}

func createUser(t *testing.T, staff bool) *domain.User {
	t.Helper()

	n := fixtureSeq.Add(1)
	user := &domain.User{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "hash",
		IsStaff:      staff,
	}
	require.NoError(t, NewUserRepository(testDB).Create(context.Background(), user))
	return user
}

func createCategory(t *testing.T, name string) *domain.Category {
	t.Helper()

	category := &domain.Category{Name: name}
	require.NoError(t, NewCategoryRepository(testDB).Create(context.Background(), category))
	return category
}

func createBrand(t *testing.T, name string) *domain.Brand {
	t.Helper()

	brand := &domain.Brand{Name: name}
	require.NoError(t, NewBrandRepository(testDB).Create(context.Background(), brand))
	return brand
}

func createStore(t *testing.T, name string) *domain.Store {
	t.Helper()

	store := &domain.Store{Name: name, URL: "http://" + name + ".example"}
	require.NoError(t, NewStoreRepository(testDB).Create(context.Background(), store))
	return store
}

func createProduct(t *testing.T, product *domain.Product) *domain.Product {
	t.Helper()

	require.NoError(t, NewProductRepository(testDB).Create(context.Background(), product))
	return product
}

func createOffer(t *testing.T, productID, storeID int64, price string, capturedAt time.Time) *domain.Offer {
	t.Helper()

	offer := &domain.Offer{
		ProductID:  productID,
		StoreID:    storeID,
		Price:      decimal.RequireFromString(price),
		CapturedAt: capturedAt,
	}
	require.NoError(t, NewOfferRepository(testDB).Create(context.Background(), offer))
	return offer
}

// catalogFixture mirrors a small catalog: a console with three offers, a
// book without offers and a mouse with one offer
type catalogFixture struct {
	console, book, mouse *domain.Product
	storeA, storeB       *domain.Store
}

func seedCatalog(t *testing.T) catalogFixture {
	t.Helper()
	resetTables(t)

	admin := createUser(t, true)
	electronics := createCategory(t, "Eletrônicos")
	books := createCategory(t, "Livros")
	sony := createBrand(t, "Sony")
	logitech := createBrand(t, "Logitech")
	storeA := createStore(t, "Loja A")
	storeB := createStore(t, "Loja B")

	console := createProduct(t, &domain.Product{
		Name:        "Console de Videogame",
		Description: "Console de última geração para jogos.",
		ImageURL:    "http://img.com/console.jpg",
		CategoryID:  &electronics.ID,
		BrandID:     &sony.ID,
		AddedBy:     &admin.ID,
		Approved:    true,
	})
	base := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	createOffer(t, console.ID, storeB.ID, "2500.00", base)
	createOffer(t, console.ID, storeA.ID, "2300.00", base.Add(5*time.Minute))
	createOffer(t, console.ID, storeB.ID, "2400.00", base.Add(10*time.Minute))

	book := createProduct(t, &domain.Product{
		Name:        "Livro de Programação",
		Description: "Guia completo para desenvolvimento web.",
		CategoryID:  &books.ID,
		Approved:    true,
	})

	mouse := createProduct(t, &domain.Product{
		Name:        "Mouse Gamer Wireless",
		Description: "Mouse ergonômico para jogos e produtividade.",
		CategoryID:  &electronics.ID,
		BrandID:     &logitech.ID,
		Approved:    true,
	})
	createOffer(t, mouse.ID, storeA.ID, "150.00", base)

	return catalogFixture{console: console, book: book, mouse: mouse, storeA: storeA, storeB: storeB}
}

func productNames(products []*domain.CatalogProduct) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}
