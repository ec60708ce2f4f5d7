package transport

import (
	"net/http"
	"time"

	"foodmart/internal/domain"
	"foodmart/internal/middleware"
	"foodmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StoreRequest represents a store create/update payload
type StoreRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	URL     string `json:"url" validate:"omitempty,url"`
	LogoURL string `json:"logo_url" validate:"omitempty,url"`
}

// NameRequest represents a category or brand payload
type NameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// ProductRequest represents a product create/update/suggest payload
type ProductRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	CategoryID  *int64 `json:"category_id" validate:"omitempty,gt=0"`
	BrandID     *int64 `json:"brand_id" validate:"omitempty,gt=0"`
}

func (req ProductRequest) product() *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
	}
}

// OfferRequest represents an offer payload. Price accepts a JSON number or
// a decimal string; a missing captured_at means now.
type OfferRequest struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	StoreID    int64           `json:"store_id" validate:"required,gt=0"`
	Price      decimal.Decimal `json:"price"`
	CapturedAt *time.Time      `json:"captured_at"`
}

func (req OfferRequest) offer() *domain.Offer {
	offer := &domain.Offer{ProductID: req.ProductID, StoreID: req.StoreID, Price: req.Price}
	if req.CapturedAt != nil {
		offer.CapturedAt = *req.CapturedAt
	}
	return offer
}

// ManagementHandler serves staff catalog administration and user product
// suggestions
type ManagementHandler struct {
	managementService service.ManagementService
	logger            *zap.Logger
}

// NewManagementHandler creates a new ManagementHandler
func NewManagementHandler(managementService service.ManagementService, logger *zap.Logger) *ManagementHandler {
	return &ManagementHandler{
		managementService: managementService,
		logger:            logger,
	}
}

// RegisterRoutes registers /api/manage for staff and the suggestion route
// for any authenticated user
func (h *ManagementHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/api/products/suggest", h.SuggestProduct)

	r.Route("/api/manage", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireStaff(h.logger))

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", h.ListStores)
			r.Post("/", h.CreateStore)
			r.Get("/{id}", h.GetStore)
			r.Put("/{id}", h.UpdateStore)
			r.Delete("/{id}", h.DeleteStore)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/brands", func(r chi.Router) {
			r.Get("/", h.ListBrands)
			r.Post("/", h.CreateBrand)
			r.Put("/{id}", h.UpdateBrand)
			r.Delete("/{id}", h.DeleteBrand)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Post("/{id}/approve", h.ApproveProduct)
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", h.ListOffers)
			r.Post("/", h.CreateOffer)
			r.Get("/{id}", h.GetOffer)
			r.Put("/{id}", h.UpdateOffer)
			r.Delete("/{id}", h.DeleteOffer)
		})
	})
}

// idParam parses {id} or answers 400
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
	}
	return id, ok
}

// Stores

func (h *ManagementHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.managementService.ListStores(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list stores")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stores)
}

func (h *ManagementHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	store, err := h.managementService.GetStore(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get store")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, store)
}

func (h *ManagementHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	store := &domain.Store{Name: req.Name, URL: req.URL, LogoURL: req.LogoURL}
	if err := h.managementService.CreateStore(r.Context(), store); err != nil {
		respondServiceError(w, h.logger, err, "failed to create store")
		return
	}

	h.logger.Info("Store created", zap.Int64("store_id", store.ID), zap.String("name", store.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, store)
}

func (h *ManagementHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req StoreRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	store := &domain.Store{ID: id, Name: req.Name, URL: req.URL, LogoURL: req.LogoURL}
	if err := h.managementService.UpdateStore(r.Context(), store); err != nil {
		respondServiceError(w, h.logger, err, "failed to update store")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, store)
}

func (h *ManagementHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.managementService.DeleteStore(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete store")
		return
	}

	h.logger.Info("Store deleted", zap.Int64("store_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Categories

func (h *ManagementHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.managementService.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *ManagementHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category := &domain.Category{Name: req.Name}
	if err := h.managementService.CreateCategory(r.Context(), category); err != nil {
		respondServiceError(w, h.logger, err, "failed to create category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *ManagementHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req NameRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category := &domain.Category{ID: id, Name: req.Name}
	if err := h.managementService.UpdateCategory(r.Context(), category); err != nil {
		respondServiceError(w, h.logger, err, "failed to update category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *ManagementHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.managementService.DeleteCategory(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Brands

func (h *ManagementHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.managementService.ListBrands(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list brands")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

func (h *ManagementHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	brand := &domain.Brand{Name: req.Name}
	if err := h.managementService.CreateBrand(r.Context(), brand); err != nil {
		respondServiceError(w, h.logger, err, "failed to create brand")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

func (h *ManagementHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req NameRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	brand := &domain.Brand{ID: id, Name: req.Name}
	if err := h.managementService.UpdateBrand(r.Context(), brand); err != nil {
		respondServiceError(w, h.logger, err, "failed to update brand")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, brand)
}

func (h *ManagementHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.managementService.DeleteBrand(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete brand")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Products

// ListProducts lists every product; ?pending=true keeps the unapproved ones
func (h *ManagementHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	pendingOnly := r.URL.Query().Get("pending") == "true"

	products, err := h.managementService.ListProducts(r.Context(), pendingOnly)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ManagementHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	product, err := h.managementService.GetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ManagementHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	staffID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product := req.product()
	if err := h.managementService.CreateProduct(r.Context(), staffID, product); err != nil {
		respondServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.Int64("staff_id", staffID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// SuggestProduct stores a product submitted by a user for staff approval
func (h *ManagementHandler) SuggestProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product := req.product()
	if err := h.managementService.SuggestProduct(r.Context(), userID, product); err != nil {
		respondServiceError(w, h.logger, err, "failed to suggest product")
		return
	}

	h.logger.Info("Product suggested", zap.Int64("product_id", product.ID), zap.Int64("user_id", userID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ManagementHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product := req.product()
	product.ID = id
	if err := h.managementService.UpdateProduct(r.Context(), product); err != nil {
		respondServiceError(w, h.logger, err, "failed to update product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ManagementHandler) ApproveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.managementService.ApproveProduct(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to approve product")
		return
	}

	h.logger.Info("Product approved", zap.Int64("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product approved"})
}

func (h *ManagementHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.managementService.DeleteProduct(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Offers

func (h *ManagementHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.managementService.ListOffers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list offers")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offers)
}

func (h *ManagementHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	offer, err := h.managementService.GetOffer(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get offer")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

// CreateOffer records a newly observed price
func (h *ManagementHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	offer := req.offer()
	if err := h.managementService.CreateOffer(r.Context(), offer); err != nil {
		respondServiceError(w, h.logger, err, "failed to create offer")
		return
	}

	h.logger.Info("Offer created",
		zap.Int64("offer_id", offer.ID),
		zap.Int64("product_id", offer.ProductID),
		zap.Int64("store_id", offer.StoreID),
		zap.String("price", offer.Price.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, offer)
}

func (h *ManagementHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req OfferRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	offer := req.offer()
	offer.ID = id
	if err := h.managementService.UpdateOffer(r.Context(), offer); err != nil {
		respondServiceError(w, h.logger, err, "failed to update offer")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

func (h *ManagementHandler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.managementService.DeleteOffer(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete offer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
