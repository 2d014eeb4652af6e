// Command twin runs the local stand-in for the hosted Go-Pods backend.
// Point the portal at it with GP_PORTAL_BACKEND=http://localhost:8090/.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "modernc.org/sqlite"

	emailPkg "ownerportal/internal/adapters/email"
	"ownerportal/internal/adapters/storage"
	"ownerportal/internal/domain/reward"
	"ownerportal/internal/twin"
)

func main() {
	dbPath := envOrDefault("GP_TWIN_DB", "twin.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	store, err := twin.NewStore(db)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}

	seed, err := twin.LoadSeedFile(os.Getenv("GP_TWIN_SEED"))
	if err != nil {
		log.Fatalf("failed to load seed: %v", err)
	}
	if err := seed.Apply(context.Background(), store); err != nil {
		log.Fatalf("failed to apply seed: %v", err)
	}
	log.Printf("Seeded %d owners and a %d-item catalog", len(seed.Owners), len(seed.Catalog))

	var sender emailPkg.Sender
	resendKey := os.Getenv("GP_TWIN_RESEND_KEY")
	emailFrom := envOrDefault("GP_TWIN_RESEND_FROM", "Go-Pods <noreply@go-pods.co.uk>")
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		log.Println("Email sender configured (noop, set GP_TWIN_RESEND_KEY for real delivery)")
	}
	feedbackTo := envOrDefault("GP_TWIN_FEEDBACK_TO", "sales@go-pods.co.uk")

	catalog := reward.NewCatalog(seed.CatalogItems())
	handler := twin.NewHandler(store, catalog, sender, feedbackTo)

	addr := envOrDefault("GP_TWIN_ADDR", ":8090")
	log.Printf("Go-Pods twin backend listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
