package transport

import (
	"net/http"

	"foodmart/internal/domain"
	"foodmart/internal/middleware"
	"foodmart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartItemRequest names a product and an optional quantity (default 1)
type CartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=0,lte=1000"`
}

// CheckoutResponse lists the purchases recorded by a checkout together with
// what is left in the cart
type CheckoutResponse struct {
	Purchases []*domain.PurchasedItem `json:"purchases"`
	Cart      *domain.CartSummary     `json:"cart"`
}

// CartHandler serves the session-held cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes. Anonymous visitors may use the
// cart; checkout requires a user.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.View)
		r.Post("/add", h.Add)
		r.Post("/remove", h.Remove)

		r.With(authMiddleware).Post("/checkout", h.Checkout)
	})
}

// View returns the priced cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cartService.Summary(r.Context(), sess)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// Add puts a product into the cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	sess, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cartService.Add(r.Context(), sess, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add to cart")
		return
	}

	h.logger.Debug("Product added to cart",
		zap.Int64("product_id", req.ProductID),
		zap.Int("item_count", summary.ItemCount),
	)
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// Remove drops a product from the cart
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	sess, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cartService.Remove(r.Context(), sess, req.ProductID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to remove from cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// Checkout buys the cart at the cheapest current offers
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	sess, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	purchases, err := h.cartService.Checkout(r.Context(), userID, sess)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to checkout")
		return
	}

	summary, err := h.cartService.Summary(r.Context(), sess)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load cart")
		return
	}

	h.logger.Info("Checkout completed", zap.Int64("user_id", userID), zap.Int("purchases", len(purchases)))
	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{Purchases: purchases, Cart: summary})
}
