package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"foodmart/internal/domain"
	"foodmart/internal/repository"

	"github.com/shopspring/decimal"
)

// In-memory repositories used across the service tests

type mockUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return repository.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

type mockProductRepository struct {
	products  map[int64]*domain.CatalogProduct
	nextID    int64
	lastQuery string
	err       error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]*domain.CatalogProduct)}
}

// add stores a catalog product; an empty minPrice leaves it unpriced
func (m *mockProductRepository) add(id int64, name string, approved bool, minPrice string) *domain.CatalogProduct {
	product := &domain.CatalogProduct{Product: domain.Product{ID: id, Name: name, Approved: approved}}
	if minPrice != "" {
		product.MinPrice = decimal.NewNullDecimal(decimal.RequireFromString(minPrice))
	}
	m.products[id] = product
	if id > m.nextID {
		m.nextID = id
	}
	return product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.nextID++
	product.ID = m.nextID
	m.products[product.ID] = &domain.CatalogProduct{Product: *product}
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	existing, ok := m.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	approved := existing.Approved
	existing.Product = *product
	existing.Approved = approved
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Approved = approved
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := product.Product
	return &copied, nil
}

func (m *mockProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.products[id]
	return ok, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.CatalogProduct, error) {
	var out []*domain.CatalogProduct
	for _, product := range m.products {
		if filter.PendingOnly && product.Approved {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (m *mockProductRepository) FindCatalogProduct(ctx context.Context, id int64) (*domain.CatalogProduct, error) {
	if m.err != nil {
		return nil, m.err
	}
	product, ok := m.products[id]
	if !ok || !product.Approved {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindCatalogProducts(ctx context.Context, ids []int64) ([]*domain.CatalogProduct, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.CatalogProduct
	for _, id := range ids {
		if product, ok := m.products[id]; ok && product.Approved {
			out = append(out, product)
		}
	}
	return out, nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string) ([]*domain.CatalogProduct, error) {
	m.lastQuery = query
	var out []*domain.CatalogProduct
	for _, product := range m.products {
		if product.Approved && strings.Contains(strings.ToLower(product.Name), strings.ToLower(query)) {
			out = append(out, product)
		}
	}
	slices.SortFunc(out, func(a, b *domain.CatalogProduct) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

type mockOfferRepository struct {
	offers map[int64][]*domain.OfferListing
	nextID int64
	err    error
}

func newMockOfferRepository() *mockOfferRepository {
	return &mockOfferRepository{offers: make(map[int64][]*domain.OfferListing)}
}

func (m *mockOfferRepository) add(productID, storeID int64, store, price string) {
	m.nextID++
	m.offers[productID] = append(m.offers[productID], &domain.OfferListing{
		Offer: domain.Offer{
			ID:        m.nextID,
			ProductID: productID,
			StoreID:   storeID,
			Price:     decimal.RequireFromString(price),
		},
		StoreName: store,
	})
}

func (m *mockOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	m.nextID++
	offer.ID = m.nextID
	m.offers[offer.ProductID] = append(m.offers[offer.ProductID], &domain.OfferListing{Offer: *offer})
	return nil
}

func (m *mockOfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	for _, listings := range m.offers {
		for _, listing := range listings {
			if listing.ID == offer.ID {
				listing.Price = offer.Price
				return nil
			}
		}
	}
	return repository.ErrOfferNotFound
}

func (m *mockOfferRepository) Delete(ctx context.Context, id int64) error {
	return repository.ErrOfferNotFound
}

func (m *mockOfferRepository) FindByID(ctx context.Context, id int64) (*domain.Offer, error) {
	return nil, repository.ErrOfferNotFound
}

func (m *mockOfferRepository) List(ctx context.Context) ([]*domain.OfferListing, error) {
	var out []*domain.OfferListing
	for _, listings := range m.offers {
		out = append(out, listings...)
	}
	return out, nil
}

func (m *mockOfferRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.OfferListing, error) {
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.offers[productID]), nil
}

func (m *mockOfferRepository) FindCheapest(ctx context.Context, productID int64) (*domain.OfferListing, error) {
	if m.err != nil {
		return nil, m.err
	}
	var cheapest *domain.OfferListing
	for _, listing := range m.offers[productID] {
		if cheapest == nil || listing.Price.LessThan(cheapest.Price) {
			cheapest = listing
		}
	}
	if cheapest == nil {
		return nil, repository.ErrOfferNotFound
	}
	return cheapest, nil
}

type mockShoppingListRepository struct {
	lists      map[int64]*domain.ShoppingList
	nextListID int64
	nextItemID int64
	// products that AddItemQuantity rejects as dangling references
	missing map[int64]bool
	addErr  error
	// failAddAt makes only the n-th AddItemQuantity call fail with addErr
	failAddAt int
	addCalls  int
}

func newMockShoppingListRepository() *mockShoppingListRepository {
	return &mockShoppingListRepository{
		lists:   make(map[int64]*domain.ShoppingList),
		missing: make(map[int64]bool),
	}
}

func (m *mockShoppingListRepository) Create(ctx context.Context, list *domain.ShoppingList) error {
	m.nextListID++
	list.ID = m.nextListID
	if list.Items == nil {
		list.Items = []domain.ShoppingListItem{}
	}
	m.lists[list.ID] = list
	return nil
}

func (m *mockShoppingListRepository) FindByID(ctx context.Context, id int64) (*domain.ShoppingList, error) {
	list, ok := m.lists[id]
	if !ok {
		return nil, repository.ErrShoppingListNotFound
	}
	return list, nil
}

func (m *mockShoppingListRepository) FindOpenByUser(ctx context.Context, userID int64) (*domain.ShoppingList, error) {
	var newest *domain.ShoppingList
	for _, list := range m.lists {
		if list.UserID == userID && !list.Finalized && (newest == nil || list.ID > newest.ID) {
			newest = list
		}
	}
	if newest == nil {
		return nil, repository.ErrShoppingListNotFound
	}
	return newest, nil
}

func (m *mockShoppingListRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.ShoppingList, error) {
	var out []*domain.ShoppingList
	for _, list := range m.lists {
		if list.UserID == userID {
			out = append(out, list)
		}
	}
	return out, nil
}

func (m *mockShoppingListRepository) AddItemQuantity(ctx context.Context, listID, productID int64, quantity int) (*domain.ShoppingListItem, error) {
	m.addCalls++
	if m.addErr != nil && (m.failAddAt == 0 || m.failAddAt == m.addCalls) {
		return nil, m.addErr
	}
	if m.missing[productID] {
		return nil, repository.ErrInvalidReference
	}
	list, ok := m.lists[listID]
	if !ok || list.Finalized {
		return nil, repository.ErrShoppingListNotFound
	}

	for i := range list.Items {
		if list.Items[i].ProductID == productID {
			list.Items[i].Quantity += quantity
			item := list.Items[i]
			return &item, nil
		}
	}

	m.nextItemID++
	item := domain.ShoppingListItem{ID: m.nextItemID, ListID: listID, ProductID: productID, Quantity: quantity}
	list.Items = append(list.Items, item)
	return &item, nil
}

func (m *mockShoppingListRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	for _, list := range m.lists {
		if list.UserID != userID || list.Finalized {
			continue
		}
		for i, item := range list.Items {
			if item.ID == itemID {
				list.Items = slices.Delete(list.Items, i, i+1)
				return nil
			}
		}
	}
	return repository.ErrShoppingListItemNotFound
}

func (m *mockShoppingListRepository) Finalize(ctx context.Context, userID, listID int64) error {
	list, ok := m.lists[listID]
	if !ok || list.UserID != userID {
		return repository.ErrShoppingListNotFound
	}
	if list.Finalized {
		return repository.ErrShoppingListFinalized
	}
	list.Finalized = true
	return nil
}

// items returns the product → quantity view of a list
func (m *mockShoppingListRepository) items(listID int64) map[int64]int {
	out := make(map[int64]int)
	for _, item := range m.lists[listID].Items {
		out[item.ProductID] = item.Quantity
	}
	return out
}

type checkoutCall struct {
	userID int64
	items  []*domain.PurchasedItem
	listID *int64
}

type mockPurchaseRepository struct {
	calls   []checkoutCall
	history []*domain.PurchasedItem
	err     error
}

func (m *mockPurchaseRepository) RecordCheckout(ctx context.Context, userID int64, items []*domain.PurchasedItem, listID *int64) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, checkoutCall{userID: userID, items: items, listID: listID})
	m.history = append(m.history, items...)
	return nil
}

func (m *mockPurchaseRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.PurchasedItem, error) {
	var out []*domain.PurchasedItem
	for _, item := range m.history {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

type mockCommentRepository struct {
	comments map[int64]*domain.Comment
	nextID   int64
}

func newMockCommentRepository() *mockCommentRepository {
	return &mockCommentRepository{comments: make(map[int64]*domain.Comment)}
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	m.nextID++
	comment.ID = m.nextID
	m.comments[comment.ID] = comment
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, ok := m.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	return comment, nil
}

func (m *mockCommentRepository) ListByProduct(ctx context.Context, productID int64) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, comment := range m.comments {
		if comment.ProductID != nil && *comment.ProductID == productID {
			out = append(out, comment)
		}
	}
	return out, nil
}

func (m *mockCommentRepository) ListByStore(ctx context.Context, storeID int64) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, comment := range m.comments {
		if comment.StoreID != nil && *comment.StoreID == storeID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type mockStoreRepository struct {
	stores map[int64]*domain.Store
	nextID int64
}

func newMockStoreRepository() *mockStoreRepository {
	return &mockStoreRepository{stores: make(map[int64]*domain.Store)}
}

func (m *mockStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	for _, existing := range m.stores {
		if existing.Name == store.Name {
			return repository.ErrStoreAlreadyExists
		}
	}
	m.nextID++
	store.ID = m.nextID
	m.stores[store.ID] = store
	return nil
}

func (m *mockStoreRepository) Update(ctx context.Context, store *domain.Store) error {
	if _, ok := m.stores[store.ID]; !ok {
		return repository.ErrStoreNotFound
	}
	m.stores[store.ID] = store
	return nil
}

func (m *mockStoreRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.stores[id]; !ok {
		return repository.ErrStoreNotFound
	}
	delete(m.stores, id)
	return nil
}

func (m *mockStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	var out []*domain.Store
	for _, store := range m.stores {
		out = append(out, store)
	}
	return out, nil
}

func (m *mockStoreRepository) FindByID(ctx context.Context, id int64) (*domain.Store, error) {
	store, ok := m.stores[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	return store, nil
}

// fakeSession is an in-memory CartSession
type fakeSession struct {
	cart    domain.SessionCart
	saves   int
	saveErr error
}

func newFakeSession(entries map[string]int) *fakeSession {
	cart := make(domain.SessionCart, len(entries))
	for key, quantity := range entries {
		cart[key] = domain.CartEntry{Quantity: quantity}
	}
	return &fakeSession{cart: cart}
}

func (f *fakeSession) Cart() domain.SessionCart {
	out := make(domain.SessionCart, len(f.cart))
	for k, v := range f.cart {
		out[k] = v
	}
	return out
}

func (f *fakeSession) SetCart(cart domain.SessionCart) { f.cart = cart }

func (f *fakeSession) ClearCart() { f.cart = domain.SessionCart{} }

func (f *fakeSession) Save(ctx context.Context) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return nil
}
