package transport

import (
	"net/http"

	"foodmart/internal/domain"
	"foodmart/internal/middleware"
	"foodmart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentRequest represents a new comment on a product and/or a store
type CommentRequest struct {
	ProductID *int64 `json:"product_id" validate:"omitempty,gt=0"`
	StoreID   *int64 `json:"store_id" validate:"required_without=ProductID,omitempty,gt=0"`
	Text      string `json:"text" validate:"required,max=2000"`
	Rating    *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

// CommentHandler serves product and store comments
type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// RegisterRoutes registers public listings and authenticated writes
func (h *CommentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/products/{id}/comments", h.ListByProduct)
	r.Get("/api/stores/{id}/comments", h.ListByStore)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/comments", h.Create)
		r.Delete("/api/comments/{id}", h.Delete)
	})
}

func (h *CommentHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByProduct(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list comments")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) ListByStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := idParam(w, r)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByStore(r.Context(), storeID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list comments")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	comment := &domain.Comment{
		ProductID: req.ProductID,
		StoreID:   req.StoreID,
		Text:      req.Text,
		Rating:    req.Rating,
	}
	if err := h.commentService.Create(r.Context(), userID, comment); err != nil {
		respondServiceError(w, h.logger, err, "failed to create comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, comment)
}

// Delete removes a comment written by the caller; staff may remove any
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	commentID, ok := idParam(w, r)
	if !ok {
		return
	}

	role, _ := middleware.GetUserRole(r.Context())
	if err := h.commentService.Delete(r.Context(), userID, role, commentID); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete comment")
		return
	}

	h.logger.Info("Comment deleted", zap.Int64("comment_id", commentID), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}
