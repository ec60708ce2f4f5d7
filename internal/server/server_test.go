package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodmart/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDatabase struct {
	status string
	closed bool
}

func (f *fakeDatabase) DB() *sql.DB { return nil }

func (f *fakeDatabase) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": f.status}
}

func (f *fakeDatabase) Close() error {
	f.closed = true
	return nil
}

func newTestServer(t *testing.T, dbStatus string) (*Server, *fakeDatabase, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		JWT:       config.JWTConfig{Secret: "server-test-secret", AccessExpiry: 15, RefreshExpiry: 7},
		Session:   config.SessionConfig{CookieName: "foodmart_session", TTL: time.Hour},
		RateLimit: config.RateLimitConfig{Requests: 100, Window: time.Minute},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	db := &fakeDatabase{status: dbStatus}
	return NewServer(cfg, zap.NewNop(), db, client), db, mr
}

func TestHealth_ReportsDatabaseAndRedis(t *testing.T) {
	srv, _, _ := newTestServer(t, "up")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "up", body["status"])
	assert.Equal(t, "up", body["redis"])
}

func TestHealth_DatabaseDownIsUnavailable(t *testing.T) {
	srv, _, mr := newTestServer(t, "down")
	mr.Close()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestRoutes_ProtectedEndpointsRequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t, "up")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/lists"},
		{http.MethodGet, "/api/purchases"},
		{http.MethodGet, "/api/manage/stores"},
		{http.MethodPost, "/api/cart/checkout"},
		{http.MethodPost, "/api/comments"},
		{http.MethodGet, "/api/users/profile"},
	} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutes_APIResponsesCarrySessionCookie(t *testing.T) {
	srv, _, _ := newTestServer(t, "up")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lists", nil))

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "foodmart_session" {
			found = cookie.Value != "" && cookie.HttpOnly
		}
	}
	assert.True(t, found, "expected an HttpOnly session cookie")
}

func TestRoutes_MetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, "up")

	// Generate at least one observation
	srv.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "foodmart_http_requests_total")
}

func TestClose_ReleasesDatabase(t *testing.T) {
	srv, db, _ := newTestServer(t, "up")

	require.NoError(t, srv.Close())
	assert.True(t, db.closed)
}
