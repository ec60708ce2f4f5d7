package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodmart/internal/domain"
	"foodmart/internal/repository"
)

// ShoppingListService manages a user's shopping lists and purchase history
type ShoppingListService interface {
	List(ctx context.Context, userID int64) ([]*domain.ShoppingList, error)
	Get(ctx context.Context, userID, listID int64) (*domain.ShoppingList, error)
	Create(ctx context.Context, userID int64, name string) (*domain.ShoppingList, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.ShoppingListItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Finalize(ctx context.Context, userID, listID int64) error
	PurchaseHistory(ctx context.Context, userID int64) ([]*domain.PurchasedItem, error)
}

type shoppingListService struct {
	listRepo     repository.ShoppingListRepository
	productRepo  repository.ProductRepository
	purchaseRepo repository.PurchaseRepository
}

// NewShoppingListService creates a new instance of ShoppingListService
func NewShoppingListService(
	listRepo repository.ShoppingListRepository,
	productRepo repository.ProductRepository,
	purchaseRepo repository.PurchaseRepository,
) ShoppingListService {
	return &shoppingListService{
		listRepo:     listRepo,
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (s *shoppingListService) List(ctx context.Context, userID int64) ([]*domain.ShoppingList, error) {
	lists, err := s.listRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	return lists, nil
}

// Get returns one of the user's lists. Lists owned by someone else are
// reported as not found.
func (s *shoppingListService) Get(ctx context.Context, userID, listID int64) (*domain.ShoppingList, error) {
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
	return list, nil
}

func (s *shoppingListService) Create(ctx context.Context, userID int64, name string) (*domain.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultListName
	}

	list := &domain.ShoppingList{UserID: userID, Name: name}
	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}
	return list, nil
}

// AddItem adds quantity units of a catalog product to the user's open list
func (s *shoppingListService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.ShoppingListItem, error) {
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

	list, err := findOrCreateOpenList(ctx, s.listRepo, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.listRepo.AddItemQuantity(ctx, list.ID, productID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to add list item: %w", err)
	}
	return item, nil
}

func (s *shoppingListService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := s.listRepo.RemoveItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, repository.ErrShoppingListItemNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove list item: %w", err)
	}
	return nil
}

// Finalize closes the list for good
func (s *shoppingListService) Finalize(ctx context.Context, userID, listID int64) error {
	err := s.listRepo.Finalize(ctx, userID, listID)
	if err != nil && !errors.Is(err, repository.ErrShoppingListNotFound) && !errors.Is(err, repository.ErrShoppingListFinalized) {
		return fmt.Errorf("failed to finalize shopping list: %w", err)
	}
	return err
}

func (s *shoppingListService) PurchaseHistory(ctx context.Context, userID int64) ([]*domain.PurchasedItem, error) {
	items, err := s.purchaseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return items, nil
}
