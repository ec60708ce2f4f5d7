package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"foodmart/internal/domain"
	"foodmart/internal/repository"
	"foodmart/internal/service"
	"foodmart/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type mockUserRepository struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repository.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
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

// memoryStore is a session.Store kept in a map
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[id], nil
}

func (s *memoryStore) Set(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = payload
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

const testCookieName = "foodmart_session"

// withSessions wraps a router in the session middleware over an in-memory store
func withSessions(r chi.Router) http.Handler {
	store := newMemoryStore()
	opts := session.Options{CookieName: testCookieName, TTL: time.Hour}
	return session.Middleware(store, opts, zap.NewNop())(r)
}

type stubCatalogService struct {
	products  map[int64]*domain.ProductDetail
	results   []domain.ProductSummary
	lastQuery string
	err       error
}

func (s *stubCatalogService) GetProductInfo(ctx context.Context, productID int64) (*domain.ProductDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products[productID], nil
}

func (s *stubCatalogService) SearchProducts(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	if s.results == nil {
		return []domain.ProductSummary{}, nil
	}
	return s.results, nil
}

// stubCartService keeps the cart in the session without pricing it
type stubCartService struct {
	known      map[int64]bool
	mergedFor  []int64
	mergedCart domain.SessionCart
}

func (s *stubCartService) summary(ctx context.Context, sess service.CartSession) (*domain.CartSummary, error) {
	cart := sess.Cart()
	summary := &domain.CartSummary{Items: []domain.CartItem{}, ItemCount: cart.TotalQuantity()}
	return summary, sess.Save(ctx)
}

func (s *stubCartService) Add(ctx context.Context, sess service.CartSession, productID int64, quantity int) (*domain.CartSummary, error) {
	if !s.known[productID] {
		return nil, repository.ErrProductNotFound
	}
	if quantity == 0 {
		quantity = 1
	}
	cart := sess.Cart()
	key := strconvKey(productID)
	entry := cart[key]
	entry.Quantity += quantity
	cart[key] = entry
	sess.SetCart(cart)
	return s.summary(ctx, sess)
}

func (s *stubCartService) Remove(ctx context.Context, sess service.CartSession, productID int64) (*domain.CartSummary, error) {
	cart := sess.Cart()
	delete(cart, strconvKey(productID))
	sess.SetCart(cart)
	return s.summary(ctx, sess)
}

func (s *stubCartService) Summary(ctx context.Context, sess service.CartSession) (*domain.CartSummary, error) {
	return s.summary(ctx, sess)
}

func (s *stubCartService) MergeSessionCartToDB(ctx context.Context, userID int64, sess service.CartSession) (*domain.MergeResult, error) {
	cart := sess.Cart()
	if len(cart) == 0 {
		return nil, nil
	}
	s.mergedFor = append(s.mergedFor, userID)
	s.mergedCart = cart
	sess.ClearCart()
	return &domain.MergeResult{ListID: 1, Merged: len(cart)}, sess.Save(ctx)
}

func (s *stubCartService) LoadList(ctx context.Context, userID, listID int64, sess service.CartSession) (*domain.CartSummary, error) {
	return nil, repository.ErrShoppingListNotFound
}

func (s *stubCartService) Checkout(ctx context.Context, userID int64, sess service.CartSession) ([]*domain.PurchasedItem, error) {
	return nil, service.ErrEmptyCart
}

func strconvKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
