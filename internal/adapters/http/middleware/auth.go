package middleware

import (
	"context"
	"net/http"
	"time"

	"ownerportal/internal/adapters/storage/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "portal_session"

// SessionCookieName is the portal's session cookie.
const SessionCookieName = "gp_session"

// SecureCookies controls the Secure attribute on issued cookies. Set to true
// in production behind TLS.
var SecureCookies = false

// Auth returns middleware that resolves the session cookie against the
// session store and puts the session in the request context. It does NOT
// block unauthenticated requests; handlers decide per route.
func Auth(store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				if sess, err := store.Get(r.Context(), cookie.Value); err == nil && !sess.IsExpired(time.Now()) {
					ctx := context.WithValue(r.Context(), sessionContextKey, sess)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithSession returns a context carrying the given session. Used by
// handler tests to simulate an authenticated request.
func ContextWithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// GetSessionFromContext returns the authenticated portal session, if any.
func GetSessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(session.Session)
	return sess, ok
}

// SetSessionCookie issues the session cookie for a new login.
func SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on logout.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   SecureCookies,
		MaxAge:   -1,
	})
}
