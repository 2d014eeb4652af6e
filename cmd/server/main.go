package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"ownerportal/internal/adapters/backend"
	web "ownerportal/internal/adapters/http"
	"ownerportal/internal/adapters/storage"
	sessionStore "ownerportal/internal/adapters/storage/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	dbPath := envOrDefault("GP_PORTAL_DB", "portal.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	sessions := sessionStore.NewSQLiteStore(db)

	endpoint := envOrDefault("GP_PORTAL_BACKEND", "http://localhost:8090/")
	client := backend.NewClient(endpoint)

	deps := &web.Deps{
		Backend:      client,
		SessionStore: sessions,
	}

	// Sweep expired sessions hourly so the table doesn't grow unbounded.
	sweepStopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sessions.DeleteExpired(context.Background(), time.Now()); err != nil {
					log.Printf("session sweep failed: %v", err)
				}
			case <-sweepStopCh:
				return
			}
		}
	}()
	defer close(sweepStopCh)

	mux := web.NewMux("static", deps)

	addr := envOrDefault("GP_PORTAL_ADDR", ":8080")
	log.Printf("Owner portal %s starting on %s (env=%s, backend=%s)",
		version, addr, envOrDefault("GP_PORTAL_ENV", "development"), endpoint)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
