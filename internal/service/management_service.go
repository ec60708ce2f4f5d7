package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodmart/internal/domain"
	"foodmart/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice = errors.New("price must be positive with at most two decimal places")
	ErrNameRequired = errors.New("name is required")
)

// ManagementService backs the staff-only catalog administration and the
// public product suggestion flow
type ManagementService interface {
	ListStores(ctx context.Context) ([]*domain.Store, error)
	GetStore(ctx context.Context, id int64) (*domain.Store, error)
	CreateStore(ctx context.Context, store *domain.Store) error
	UpdateStore(ctx context.Context, store *domain.Store) error
	DeleteStore(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListBrands(ctx context.Context) ([]*domain.Brand, error)
	CreateBrand(ctx context.Context, brand *domain.Brand) error
	UpdateBrand(ctx context.Context, brand *domain.Brand) error
	DeleteBrand(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, pendingOnly bool) ([]*domain.CatalogProduct, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, staffID int64, product *domain.Product) error
	SuggestProduct(ctx context.Context, userID int64, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	ApproveProduct(ctx context.Context, id int64) error
	DeleteProduct(ctx context.Context, id int64) error

	ListOffers(ctx context.Context) ([]*domain.OfferListing, error)
	GetOffer(ctx context.Context, id int64) (*domain.Offer, error)
	CreateOffer(ctx context.Context, offer *domain.Offer) error
	UpdateOffer(ctx context.Context, offer *domain.Offer) error
	DeleteOffer(ctx context.Context, id int64) error
}

type managementService struct {
	storeRepo    repository.StoreRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	productRepo  repository.ProductRepository
	offerRepo    repository.OfferRepository
}

// NewManagementService creates a new instance of ManagementService
func NewManagementService(
	storeRepo repository.StoreRepository,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	productRepo repository.ProductRepository,
	offerRepo repository.OfferRepository,
) ManagementService {
	return &managementService{
		storeRepo:    storeRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		productRepo:  productRepo,
		offerRepo:    offerRepo,
	}
}

// passThrough keeps the repository's sentinel errors intact and wraps the rest
func passThrough(err error, action string, sentinels ...error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func normalizeName(name *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return ErrNameRequired
	}
	return nil
}

// validPrice accepts positive prices that fit DECIMAL(10, 2) cents
func validPrice(price decimal.Decimal) bool {
	return price.IsPositive() && price.Equal(price.Round(2)) && price.LessThan(decimal.New(1, 8))
}

// Stores

func (s *managementService) ListStores(ctx context.Context) ([]*domain.Store, error) {
	stores, err := s.storeRepo.List(ctx)
	return stores, passThrough(err, "list stores")
}

func (s *managementService) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	return store, passThrough(err, "get store", repository.ErrStoreNotFound)
}

func (s *managementService) CreateStore(ctx context.Context, store *domain.Store) error {
	if err := normalizeName(&store.Name); err != nil {
		return err
	}
	return passThrough(s.storeRepo.Create(ctx, store), "create store", repository.ErrStoreAlreadyExists)
}

func (s *managementService) UpdateStore(ctx context.Context, store *domain.Store) error {
	if err := normalizeName(&store.Name); err != nil {
		return err
	}
	return passThrough(s.storeRepo.Update(ctx, store), "update store",
		repository.ErrStoreNotFound, repository.ErrStoreAlreadyExists)
}

func (s *managementService) DeleteStore(ctx context.Context, id int64) error {
	return passThrough(s.storeRepo.Delete(ctx, id), "delete store", repository.ErrStoreNotFound)
}

// Categories

func (s *managementService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	return categories, passThrough(err, "list categories")
}

func (s *managementService) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := normalizeName(&category.Name); err != nil {
		return err
	}
	return passThrough(s.categoryRepo.Create(ctx, category), "create category", repository.ErrCategoryAlreadyExists)
}

func (s *managementService) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if err := normalizeName(&category.Name); err != nil {
		return err
	}
	return passThrough(s.categoryRepo.Update(ctx, category), "update category",
		repository.ErrCategoryNotFound, repository.ErrCategoryAlreadyExists)
}

func (s *managementService) DeleteCategory(ctx context.Context, id int64) error {
	return passThrough(s.categoryRepo.Delete(ctx, id), "delete category", repository.ErrCategoryNotFound)
}

// Brands

func (s *managementService) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	brands, err := s.brandRepo.List(ctx)
	return brands, passThrough(err, "list brands")
}

func (s *managementService) CreateBrand(ctx context.Context, brand *domain.Brand) error {
	if err := normalizeName(&brand.Name); err != nil {
		return err
	}
	return passThrough(s.brandRepo.Create(ctx, brand), "create brand", repository.ErrBrandAlreadyExists)
}

func (s *managementService) UpdateBrand(ctx context.Context, brand *domain.Brand) error {
	if err := normalizeName(&brand.Name); err != nil {
		return err
	}
	return passThrough(s.brandRepo.Update(ctx, brand), "update brand",
		repository.ErrBrandNotFound, repository.ErrBrandAlreadyExists)
}

func (s *managementService) DeleteBrand(ctx context.Context, id int64) error {
	return passThrough(s.brandRepo.Delete(ctx, id), "delete brand", repository.ErrBrandNotFound)
}

// Products

func (s *managementService) ListProducts(ctx context.Context, pendingOnly bool) ([]*domain.CatalogProduct, error) {
	products, err := s.productRepo.List(ctx, repository.ProductFilter{PendingOnly: pendingOnly})
	return products, passThrough(err, "list products")
}

func (s *managementService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	return product, passThrough(err, "get product", repository.ErrProductNotFound)
}

// CreateProduct adds a product on behalf of staff; it is visible right away
func (s *managementService) CreateProduct(ctx context.Context, staffID int64, product *domain.Product) error {
	product.Approved = true
	return s.createProduct(ctx, staffID, product)
}

// SuggestProduct stores a user-submitted product pending staff approval
func (s *managementService) SuggestProduct(ctx context.Context, userID int64, product *domain.Product) error {
	product.Approved = false
	return s.createProduct(ctx, userID, product)
}

func (s *managementService) createProduct(ctx context.Context, addedBy int64, product *domain.Product) error {
	if err := normalizeName(&product.Name); err != nil {
		return err
	}
	product.AddedBy = &addedBy
	return passThrough(s.productRepo.Create(ctx, product), "create product", repository.ErrInvalidReference)
}

func (s *managementService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := normalizeName(&product.Name); err != nil {
		return err
	}
	return passThrough(s.productRepo.Update(ctx, product), "update product",
		repository.ErrProductNotFound, repository.ErrInvalidReference)
}

func (s *managementService) ApproveProduct(ctx context.Context, id int64) error {
	return passThrough(s.productRepo.SetApproved(ctx, id, true), "approve product", repository.ErrProductNotFound)
}

func (s *managementService) DeleteProduct(ctx context.Context, id int64) error {
	return passThrough(s.productRepo.Delete(ctx, id), "delete product", repository.ErrProductNotFound)
}

// Offers

func (s *managementService) ListOffers(ctx context.Context) ([]*domain.OfferListing, error) {
	offers, err := s.offerRepo.List(ctx)
	return offers, passThrough(err, "list offers")
}

func (s *managementService) GetOffer(ctx context.Context, id int64) (*domain.Offer, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	return offer, passThrough(err, "get offer", repository.ErrOfferNotFound)
}

// CreateOffer records a newly observed price. Every call inserts a new offer.
func (s *managementService) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	if !validPrice(offer.Price) {
		return ErrInvalidPrice
	}
	return passThrough(s.offerRepo.Create(ctx, offer), "create offer",
		repository.ErrOfferAlreadyExists, repository.ErrInvalidReference)
}

func (s *managementService) UpdateOffer(ctx context.Context, offer *domain.Offer) error {
	if !validPrice(offer.Price) {
		return ErrInvalidPrice
	}
	return passThrough(s.offerRepo.Update(ctx, offer), "update offer",
		repository.ErrOfferNotFound, repository.ErrOfferAlreadyExists, repository.ErrInvalidReference)
}

func (s *managementService) DeleteOffer(ctx context.Context, id int64) error {
	return passThrough(s.offerRepo.Delete(ctx, id), "delete offer", repository.ErrOfferNotFound)
}
