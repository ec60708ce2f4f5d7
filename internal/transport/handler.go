package transport

import (
	"errors"
	"net/http"
	"strconv"

	"foodmart/internal/middleware"
	"foodmart/internal/repository"
	"foodmart/internal/service"
	"foodmart/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var _ service.CartSession = (*session.Session)(nil)

// errorStatuses maps domain sentinels to the HTTP status they surface as
var errorStatuses = []struct {
	err    error
	status int
}{
	{repository.ErrProductNotFound, http.StatusNotFound},
	{repository.ErrStoreNotFound, http.StatusNotFound},
	{repository.ErrOfferNotFound, http.StatusNotFound},
	{repository.ErrCategoryNotFound, http.StatusNotFound},
	{repository.ErrBrandNotFound, http.StatusNotFound},
	{repository.ErrCommentNotFound, http.StatusNotFound},
	{repository.ErrShoppingListNotFound, http.StatusNotFound},
	{repository.ErrShoppingListItemNotFound, http.StatusNotFound},
	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrStoreAlreadyExists, http.StatusConflict},
	{repository.ErrCategoryAlreadyExists, http.StatusConflict},
	{repository.ErrBrandAlreadyExists, http.StatusConflict},
	{repository.ErrOfferAlreadyExists, http.StatusConflict},
	{repository.ErrUserAlreadyExists, http.StatusConflict},
	{repository.ErrShoppingListFinalized, http.StatusConflict},
	{repository.ErrInvalidReference, http.StatusUnprocessableEntity},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrInvalidPrice, http.StatusBadRequest},
	{service.ErrNameRequired, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrCommentTargetRequired, http.StatusBadRequest},
	{service.ErrCommentTextRequired, http.StatusBadRequest},
	{service.ErrInvalidRating, http.StatusBadRequest},
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrNothingToCheckout, http.StatusUnprocessableEntity},
}

// respondServiceError writes the status matching err. Unknown errors are
// logged and reported as a 500 carrying fallback.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	for _, mapping := range errorStatuses {
		if errors.Is(err, mapping.err) {
			middleware.RespondWithError(w, mapping.status, mapping.err.Error())
			return
		}
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// decodeRequest decodes and validates the JSON body into v, answering 400 on
// failure. It reports whether the handler may continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}

	logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return false
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// pathID parses a positive numeric URL parameter
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// requestSession returns the session attached by session.Middleware
func requestSession(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*session.Session, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		logger.Error("Session missing from request context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return sess, true
}

// requireUser returns the authenticated user id or answers 401
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}
