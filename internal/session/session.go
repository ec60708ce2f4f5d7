// Package session provides cookie-identified sessions persisted in a Store.
// The session carries the anonymous shopping cart until the visitor logs in.
//
// Usage (handler):
//
//	sess := session.FromContext(r.Context())
//	cart := sess.Cart()
//	cart["42"] = domain.CartEntry{Quantity: 1}
//	sess.SetCart(cart)
//	err := sess.Save(r.Context())
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"foodmart/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures the session cookie and its lifetime
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type payload struct {
	Cart domain.SessionCart `json:"cart,omitempty"`
}

// Session is the per-request session handle. It is not safe for concurrent use.
type Session struct {
	id      string
	data    payload
	store   Store
	ttl     time.Duration
	changed bool
}

// New creates an empty session with a fresh id
func New(store Store, ttl time.Duration) *Session {
	return &Session{id: uuid.NewString(), store: store, ttl: ttl}
}

// Load restores a session by id. An id the store does not know yields an
// empty session under a fresh id, so clients cannot choose their session id.
// On a store error the requested id is kept.
func Load(ctx context.Context, store Store, id string, ttl time.Duration) (*Session, error) {
	sess := &Session{id: id, store: store, ttl: ttl}

	raw, err := store.Get(ctx, id)
	if err != nil {
		return sess, err
	}
	if raw == nil {
		return New(store, ttl), nil
	}

	if err := json.Unmarshal(raw, &sess.data); err != nil {
		return sess, fmt.Errorf("session: unmarshal: %w", err)
	}
	return sess, nil
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Cart returns a copy of the session cart, never nil
func (s *Session) Cart() domain.SessionCart {
	cart := make(domain.SessionCart, len(s.data.Cart))
	for k, v := range s.data.Cart {
		cart[k] = v
	}
	return cart
}

// SetCart replaces the session cart
func (s *Session) SetCart(cart domain.SessionCart) {
	s.data.Cart = cart
	s.changed = true
}

// ClearCart empties the session cart
func (s *Session) ClearCart() {
	s.data.Cart = nil
	s.changed = true
}

// Save persists the session if it changed since it was loaded
func (s *Session) Save(ctx context.Context) error {
	if !s.changed {
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	if err := s.store.Set(ctx, s.id, raw, s.ttl); err != nil {
		return err
	}

	s.changed = false
	return nil
}

// Regenerate moves the session data to a fresh id and drops the old entry.
// Call it when the visitor's privilege changes, e.g. at login; the cookie
// written by Middleware follows the new id.
func (s *Session) Regenerate(ctx context.Context) error {
	old := s.id
	s.id = uuid.NewString()
	s.changed = true

	if err := s.Save(ctx); err != nil {
		return err
	}
	return s.store.Delete(ctx, old)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying sess
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored in ctx, or nil
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}

// cookieWriter sets the session cookie right before the response header is
// written, so it carries the id the handler left the session with
type cookieWriter struct {
	http.ResponseWriter
	sess    *Session
	opts    Options
	written bool
}

func (cw *cookieWriter) setCookie() {
	if cw.written {
		return
	}
	cw.written = true

	http.SetCookie(cw.ResponseWriter, &http.Cookie{
		Name:     cw.opts.CookieName,
		Value:    cw.sess.id,
		Path:     "/",
		MaxAge:   int(cw.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cw.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cw *cookieWriter) WriteHeader(statusCode int) {
	cw.setCookie()
	cw.ResponseWriter.WriteHeader(statusCode)
}

func (cw *cookieWriter) Write(b []byte) (int, error) {
	cw.setCookie()
	return cw.ResponseWriter.Write(b)
}

func (cw *cookieWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// Middleware loads or creates the session of every request and refreshes its
// cookie. A store failure degrades to an empty session instead of failing
// the request.
func Middleware(store Store, opts Options, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *Session

			if cookie, err := r.Cookie(opts.CookieName); err == nil && uuid.Validate(cookie.Value) == nil {
				loaded, err := Load(r.Context(), store, cookie.Value, opts.TTL)
				if err != nil {
					logger.Warn("Failed to load session", zap.Error(err))
				}
				sess = loaded
			} else {
				sess = New(store, opts.TTL)
			}

			cw := &cookieWriter{ResponseWriter: w, sess: sess, opts: opts}
			next.ServeHTTP(cw, r.WithContext(NewContext(r.Context(), sess)))

			// Handlers that never write still get the cookie
			cw.setCookie()
		})
	}
}
