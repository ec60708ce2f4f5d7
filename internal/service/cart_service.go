package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"foodmart/internal/domain"
	"foodmart/internal/metrics"
	"foodmart/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNothingToCheckout = errors.New("no cart item has a current offer")
)

// CartSession is the request-scoped cart holder. *session.Session satisfies it.
type CartSession interface {
	Cart() domain.SessionCart
	SetCart(cart domain.SessionCart)
	ClearCart()
	Save(ctx context.Context) error
}

// CartService defines the interface for session cart operations
type CartService interface {
	Add(ctx context.Context, sess CartSession, productID int64, quantity int) (*domain.CartSummary, error)
	Remove(ctx context.Context, sess CartSession, productID int64) (*domain.CartSummary, error)
	Summary(ctx context.Context, sess CartSession) (*domain.CartSummary, error)
	MergeSessionCartToDB(ctx context.Context, userID int64, sess CartSession) (*domain.MergeResult, error)
	LoadList(ctx context.Context, userID, listID int64, sess CartSession) (*domain.CartSummary, error)
	Checkout(ctx context.Context, userID int64, sess CartSession) ([]*domain.PurchasedItem, error)
}

type cartService struct {
	productRepo  repository.ProductRepository
	offerRepo    repository.OfferRepository
	listRepo     repository.ShoppingListRepository
	purchaseRepo repository.PurchaseRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(
	productRepo repository.ProductRepository,
	offerRepo repository.OfferRepository,
	listRepo repository.ShoppingListRepository,
	purchaseRepo repository.PurchaseRepository,
) CartService {
	return &cartService{
		productRepo:  productRepo,
		offerRepo:    offerRepo,
		listRepo:     listRepo,
		purchaseRepo: purchaseRepo,
	}
}

func cartKey(productID int64) string {
	return strconv.FormatInt(productID, 10)
}

// sortedCartKeys returns the cart keys in a stable order so merges and
// checkouts touch rows deterministically
func sortedCartKeys(cart domain.SessionCart) []string {
	keys := make([]string, 0, len(cart))
	for key := range cart {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Add puts quantity units of a catalog product into the cart. A zero quantity
// means one unit.
func (s *cartService) Add(ctx context.Context, sess CartSession, productID int64, quantity int) (*domain.CartSummary, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.productRepo.FindCatalogProduct(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	cart := sess.Cart()
	key := cartKey(productID)
	entry := cart[key]
	entry.Quantity += quantity
	cart[key] = entry
	sess.SetCart(cart)

	return s.Summary(ctx, sess)
}

// Remove drops a product from the cart. Removing an absent product is not an error.
func (s *cartService) Remove(ctx context.Context, sess CartSession, productID int64) (*domain.CartSummary, error) {
	cart := sess.Cart()
	if _, ok := cart[cartKey(productID)]; ok {
		delete(cart, cartKey(productID))
		sess.SetCart(cart)
	}

	return s.Summary(ctx, sess)
}

// Summary prices the cart at each product's current minimum offer and saves
// the session. Entries that no longer resolve to a catalog product are pruned.
func (s *cartService) Summary(ctx context.Context, sess CartSession) (*domain.CartSummary, error) {
	cart := sess.Cart()
	summary := &domain.CartSummary{Items: []domain.CartItem{}}

	ids := make([]int64, 0, len(cart))
	stale := false
	for key, entry := range cart {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || entry.Quantity <= 0 {
			delete(cart, key)
			stale = true
			continue
		}
		ids = append(ids, id)
	}

	products := []*domain.CatalogProduct{}
	if len(ids) > 0 {
		var err error
		products, err = s.productRepo.FindCatalogProducts(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart products: %w", err)
		}
	}

	found := make(map[string]bool, len(products))
	total := decimal.Zero
	for _, product := range products {
		key := cartKey(product.ID)
		found[key] = true

		unitPrice := decimal.Zero
		if product.MinPrice.Valid {
			unitPrice = product.MinPrice.Decimal
		}
		quantity := cart[key].Quantity
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		total = total.Add(lineTotal)

		summary.Items = append(summary.Items, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  quantity,
			UnitPrice: domain.PriceValue(unitPrice),
			Total:     domain.PriceValue(lineTotal),
		})
		summary.ItemCount += quantity
	}

	for key := range cart {
		if !found[key] {
			delete(cart, key)
			stale = true
		}
	}
	if stale {
		sess.SetCart(cart)
	}

	slices.SortFunc(summary.Items, func(a, b domain.CartItem) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ProductID, b.ProductID))
	})
	summary.Total = domain.PriceValue(total)

	if err := sess.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return summary, nil
}

// MergeSessionCartToDB folds the session cart into the user's open shopping
// list, creating the list when the user has none. Quantities of products
// already on the list accumulate. Entries for missing products are dropped
// and the cart is cleared once every entry has been handled.
//
// Each entry leaves the cart as soon as it is merged or skipped. When storage
// fails midway the cart keeps only the unhandled entries, so a later merge
// never adds the same quantity twice.
//
// Two concurrent merges for the same user may both create an open list or
// both add their quantities; nothing serializes them.
func (s *cartService) MergeSessionCartToDB(ctx context.Context, userID int64, sess CartSession) (*domain.MergeResult, error) {
	cart := sess.Cart()
	if userID == 0 || len(cart) == 0 {
		return nil, nil
	}

	list, err := findOrCreateOpenList(ctx, s.listRepo, userID)
	if err != nil {
		return nil, err
	}

	// abort keeps what is left of the cart and reports err
	abort := func(err error) (*domain.MergeResult, error) {
		sess.SetCart(cart)
		if saveErr := sess.Save(ctx); saveErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to save session: %w", saveErr))
		}
		return nil, err
	}

	result := &domain.MergeResult{ListID: list.ID}
	for _, key := range sortedCartKeys(cart) {
		entry := cart[key]
		productID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || entry.Quantity <= 0 {
			result.Skipped++
			delete(cart, key)
			continue
		}

		exists, err := s.productRepo.Exists(ctx, productID)
		if err != nil {
			return abort(fmt.Errorf("failed to check product: %w", err))
		}
		if !exists {
			result.Skipped++
			delete(cart, key)
			continue
		}

		if _, err := s.listRepo.AddItemQuantity(ctx, list.ID, productID, entry.Quantity); err != nil {
			// Deleted between the check and the insert
			if errors.Is(err, repository.ErrInvalidReference) {
				result.Skipped++
				delete(cart, key)
				continue
			}
			return abort(fmt.Errorf("failed to merge cart item: %w", err))
		}
		result.Merged++
		delete(cart, key)
	}

	sess.ClearCart()
	if err := sess.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.RecordCartMerge(result.Merged, result.Skipped)
	return result, nil
}

// LoadList copies the items of one of the user's lists into the session
// cart, summing quantities with what the cart already holds
func (s *cartService) LoadList(ctx context.Context, userID, listID int64, sess CartSession) (*domain.CartSummary, error) {
	list, err := s.listRepo.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrShoppingListNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}
	if list.UserID != userID {
		return nil, repository.ErrShoppingListNotFound
	}

	cart := sess.Cart()
	for _, item := range list.Items {
		key := cartKey(item.ProductID)
		entry := cart[key]
		entry.Quantity += item.Quantity
		cart[key] = entry
	}
	sess.SetCart(cart)

	return s.Summary(ctx, sess)
}

// Checkout records every cart line that has a current offer as a purchase at
// the cheapest store, finalizes the user's open list and removes the
// purchased lines from the cart. Lines without any offer stay in the cart.
func (s *cartService) Checkout(ctx context.Context, userID int64, sess CartSession) ([]*domain.PurchasedItem, error) {
	cart := sess.Cart()
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	items := make([]*domain.PurchasedItem, 0, len(cart))
	purchased := make([]string, 0, len(cart))

	for _, key := range sortedCartKeys(cart) {
		entry := cart[key]
		productID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || entry.Quantity <= 0 {
			continue
		}

		offer, err := s.offerRepo.FindCheapest(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrOfferNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to price cart item: %w", err)
		}

		storeID := offer.StoreID
		items = append(items, &domain.PurchasedItem{
			UserID:      userID,
			StoreID:     &storeID,
			ProductID:   &productID,
			PricePaid:   offer.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))),
			PurchasedOn: today,
			StoreName:   &offer.StoreName,
			ProductName: &offer.ProductName,
		})
		purchased = append(purchased, key)
	}

	if len(items) == 0 {
		return nil, ErrNothingToCheckout
	}

	var listID *int64
	list, err := s.listRepo.FindOpenByUser(ctx, userID)
	switch {
	case err == nil:
		listID = &list.ID
	case !errors.Is(err, repository.ErrShoppingListNotFound):
		return nil, fmt.Errorf("failed to load open shopping list: %w", err)
	}

	if err := s.purchaseRepo.RecordCheckout(ctx, userID, items, listID); err != nil {
		return nil, fmt.Errorf("failed to record checkout: %w", err)
	}

	for _, key := range purchased {
		delete(cart, key)
	}
	sess.SetCart(cart)
	if err := sess.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return items, nil
}

// findOrCreateOpenList returns the user's newest open list, creating one
// named domain.DefaultListName when there is none
func findOrCreateOpenList(ctx context.Context, repo repository.ShoppingListRepository, userID int64) (*domain.ShoppingList, error) {
	list, err := repo.FindOpenByUser(ctx, userID)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, repository.ErrShoppingListNotFound) {
		return nil, fmt.Errorf("failed to load open shopping list: %w", err)
	}

	list = &domain.ShoppingList{UserID: userID, Name: domain.DefaultListName}
	if err := repo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}
	return list, nil
}
