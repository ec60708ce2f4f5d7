package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var envelopeStatuses = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusServiceUnavailable,
}

// Feature: foodmart, Property: every API error uses the same envelope
func TestProperty_ErrorEnvelopeIsUniform(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("status, code text, message and RFC3339 timestamp are present", prop.ForAll(
		func(idx int, message string) bool {
			statusCode := envelopeStatuses[idx]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				t.Logf("FAIL: status %d content type %q", w.Code, w.Header().Get("Content-Type"))
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Logf("FAIL: Response is not JSON: %v", err)
				return false
			}

			if response.Error.Code != http.StatusText(statusCode) {
				t.Logf("FAIL: Expected code %q, got %q", http.StatusText(statusCode), response.Error.Code)
				return false
			}
			if response.Error.Message != message || response.Error.Details != nil {
				t.Logf("FAIL: Unexpected message/details: %+v", response.Error)
				return false
			}

			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.IntRange(0, len(envelopeStatuses)-1),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: foodmart, Property: validation failures list every offending field
func TestProperty_ValidationErrorsListEveryField(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation responses are 400 with one entry per field", prop.ForAll(
		func(fields []string) bool {
			errs := make([]ValidationError, len(fields))
			for i, field := range fields {
				errs[i] = ValidationError{Field: field, Message: field + " is required"}
			}

			w := httptest.NewRecorder()
			RespondWithValidationErrors(w, errs)

			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: Expected 400, got %d", w.Code)
				return false
			}

			var response struct {
				Error struct {
					Message string `json:"message"`
					Details struct {
						ValidationErrors []ValidationError `json:"validation_errors"`
					} `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Logf("FAIL: Response is not JSON: %v", err)
				return false
			}

			got := response.Error.Details.ValidationErrors
			if response.Error.Message != "validation failed" || len(got) != len(fields) {
				t.Logf("FAIL: Expected %d validation errors, got %d", len(fields), len(got))
				return false
			}
			for i := range fields {
				if got[i].Field != fields[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("product_id", "quantity", "price", "store_id", "text", "rating")).
			SuchThat(func(v []string) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestErrorHandlingMiddleware_RecoversPanic(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(ErrorHandlingMiddleware(zap.NewNop()))
	r.Get("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		panic("session store exploded")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "internal server error", response.Error.Message)
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestErrorHandlingMiddleware_ReraisesAbort(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"products": []string{}})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"products":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	RespondWithJSON(w, http.StatusOK, nil)
	assert.JSONEq(t, `{}`, w.Body.String())
}
