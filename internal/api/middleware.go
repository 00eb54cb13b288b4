// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leadfollow/internal/common/auth"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/metrics"
	"leadfollow/internal/models"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const userIDKey ctxKey = iota

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated caller, or "" outside the auth middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Metrics records request counts and latencies labelled by route pattern, so
// /api/prospects/{id} stays one series regardless of the id.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// SessionStore is satisfied by *auth.SessionStore.
type SessionStore interface {
	Create(ctx context.Context, userID, ip string) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator resolves the caller from the session cookie or, failing
// that, a bearer token checked against the identity provider.
type Authenticator struct {
	sessions   SessionStore
	idp        auth.IdentityProvider
	cookieName string
	errs       *errors.ErrorHandler
}

func NewAuthenticator(sessions SessionStore, idp auth.IdentityProvider, cookieName string, errs *errors.ErrorHandler) *Authenticator {
	return &Authenticator{sessions: sessions, idp: idp, cookieName: cookieName, errs: errs}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.resolve(r)
		if err != nil {
			a.errs.HandleHTTPError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

func (a *Authenticator) resolve(r *http.Request) (string, error) {
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		session, err := a.sessions.Get(r.Context(), c.Value)
		if err != nil {
			return "", errors.NewCacheUnavailableError(err)
		}
		if session != nil {
			return session.UserID, nil
		}
	}

	token := bearerToken(r)
	if token == "" || a.idp == nil {
		return "", errors.NewAuthenticationError("not authenticated")
	}
	identity, err := a.idp.UserInfo(r.Context(), token)
	if err != nil {
		return "", err
	}
	return identity.Subject, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
