package main

import (
	"log"
	"net/http"
	"os"

	"style-rush/internal/config"
	"style-rush/internal/db"
	"style-rush/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		// The server runs fully in memory without a database; persistence
		// is skipped until one is configured.
		log.Printf("database unavailable, running without persistence: %v", err)
		conn = nil
	}
	if conn != nil {
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, cfg)
	srv.StartSweeper()
	defer srv.Stop()

	log.Printf("style-rush server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
