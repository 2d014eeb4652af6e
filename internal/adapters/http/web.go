// Package web is the portal's HTTP adapter: a small set of mutually
// exclusive screens (login, dashboard, redemption wizard) rendered fully
// from state on every change, plus the form handlers that dispatch backend
// actions.
package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"ownerportal/internal/adapters/backend"
	"ownerportal/internal/adapters/http/middleware"
	"ownerportal/internal/adapters/storage/session"
	"ownerportal/internal/domain/redemption"
	"ownerportal/internal/domain/reward"
)

// Deps holds the adapters the handlers need.
type Deps struct {
	Backend      backend.API
	SessionStore session.Store
}

// Global deps instance (set by NewMux)
var deps *Deps

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// wizardState holds the per-session redemption wizard plus the catalog
// loaded once for that session. Both are ephemeral by design: a portal
// restart discards open wizards but never logins.
type wizardState struct {
	mu       sync.Mutex
	states   map[string]*redemption.State
	catalogs map[string]reward.Catalog
}

var wizards = &wizardState{
	states:   make(map[string]*redemption.State),
	catalogs: make(map[string]reward.Catalog),
}

// reset starts a fresh wizard for a session, keeping any cached catalog.
func (ws *wizardState) reset(sessionID string) *redemption.State {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	st := redemption.New()
	ws.states[sessionID] = st
	return st
}

// current returns the open wizard for a session, if any.
func (ws *wizardState) current(sessionID string) (*redemption.State, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	st, ok := ws.states[sessionID]
	return st, ok
}

// catalog returns the session's cached catalog.
func (ws *wizardState) catalog(sessionID string) (reward.Catalog, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	cat, ok := ws.catalogs[sessionID]
	return cat, ok
}

// setCatalog caches the catalog for a session.
func (ws *wizardState) setCatalog(sessionID string, cat reward.Catalog) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.catalogs[sessionID] = cat
}

// clear drops all wizard state for a session (logout or order completion).
func (ws *wizardState) clear(sessionID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.states, sessionID)
}

// clearAll drops wizard state and the cached catalog (logout).
func (ws *wizardState) clearAll(sessionID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.states, sessionID)
	delete(ws.catalogs, sessionID)
}

// loadCSRFKey reads the CSRF secret from GP_PORTAL_CSRF_KEY (hex-encoded,
// 32 bytes). In production the key MUST be set; in development a random key
// is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("GP_PORTAL_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("GP_PORTAL_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("GP_PORTAL_ENV") == "production" {
		log.Fatal("GP_PORTAL_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (forms won't survive restart). Set GP_PORTAL_CSRF_KEY for production.")
	return key
}

// NewMux wires HTTP handlers for the portal.
func NewMux(staticDir string, d *Deps) http.Handler {
	deps = d
	middleware.SecureCookies = os.Getenv("GP_PORTAL_ENV") == "production"

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: SecurityHeaders -> CSRF -> Auth -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(d.SessionStore),
		middleware.RateLimit(limiter),
	)
}
