package transport

import (
	"net/http"

	"foodmart/internal/domain"
	"foodmart/internal/middleware"
	"foodmart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const productNotFoundMessage = "Produto não encontrado"

// ProductDetailResponse wraps a single aggregated product
type ProductDetailResponse struct {
	Product *domain.ProductDetail `json:"product"`
}

// ProductListResponse wraps catalog search results
type ProductListResponse struct {
	Products []domain.ProductSummary `json:"products"`
}

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/produto-dados/{id}", h.GetProduct)
	r.Get("/api/products", h.SearchProducts)
}

// GetProduct answers with the product, its offers cheapest first and its
// minimum price. Unknown ids get a plain {"error": ...} body with 404.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithJSON(w, http.StatusNotFound, map[string]string{"error": productNotFoundMessage})
		return
	}

	product, err := h.catalogService.GetProductInfo(r.Context(), productID)
	if err != nil {
		h.logger.Error("Failed to get product info", zap.Int64("product_id", productID), zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "Erro ao carregar produto"})
		return
	}
	if product == nil {
		middleware.RespondWithJSON(w, http.StatusNotFound, map[string]string{"error": productNotFoundMessage})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductDetailResponse{Product: product})
}

// SearchProducts lists catalog products matching ?q=, or all of them
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	products, err := h.catalogService.SearchProducts(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to search products", zap.String("query", query), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	h.logger.Debug("Products searched", zap.String("query", query), zap.Int("results", len(products)))
	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{Products: products})
}
