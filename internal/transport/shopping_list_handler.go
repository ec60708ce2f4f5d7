package transport

import (
	"net/http"

	"foodmart/internal/middleware"
	"foodmart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateListRequest names a new shopping list
type CreateListRequest struct {
	Name string `json:"name" validate:"max=255"`
}

// ShoppingListHandler serves the caller's shopping lists and purchases
type ShoppingListHandler struct {
	listService service.ShoppingListService
	cartService service.CartService
	logger      *zap.Logger
}

// NewShoppingListHandler creates a new ShoppingListHandler
func NewShoppingListHandler(listService service.ShoppingListService, cartService service.CartService, logger *zap.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{
		listService: listService,
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers the shopping list and purchase routes; all of them
// require a user
func (h *ShoppingListHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Route("/api/lists", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{itemID}", h.RemoveItem)
			r.Get("/{id}", h.Get)
			r.Post("/{id}/finalize", h.Finalize)
			r.Post("/{id}/use-as-cart", h.UseAsCart)
		})

		r.Get("/api/purchases", h.PurchaseHistory)
	})
}

func (h *ShoppingListHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	lists, err := h.listService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list shopping lists")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lists)
}

func (h *ShoppingListHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, err := h.listService.Get(r.Context(), userID, listID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load shopping list")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, list)
}

func (h *ShoppingListHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateListRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	list, err := h.listService.Create(r.Context(), userID, req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create shopping list")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, list)
}

// AddItem adds a product to the caller's open list
func (h *ShoppingListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	item, err := h.listService.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add list item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *ShoppingListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(r, "itemID")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.listService.RemoveItem(r.Context(), userID, itemID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove list item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ShoppingListHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	if err := h.listService.Finalize(r.Context(), userID, listID); err != nil {
		respondServiceError(w, h.logger, err, "failed to finalize shopping list")
		return
	}

	h.logger.Info("Shopping list finalized", zap.Int64("user_id", userID), zap.Int64("list_id", listID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "shopping list finalized"})
}

// UseAsCart copies a list into the session cart
func (h *ShoppingListHandler) UseAsCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	sess, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.cartService.LoadList(r.Context(), userID, listID, sess)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load list into cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *ShoppingListHandler) PurchaseHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.listService.PurchaseHistory(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list purchases")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}
