package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pathce/internal/catalog"
)

func main() {
	catalogDir := flag.String("catalog", "", "Path to an exported catalog directory. Can be set via CATALOG_DIR.")
	port := flag.String("port", "", "HTTP port (default 8080). Can be set via PORT.")
	cacheSize := flag.Int("cache-size", 1024, "Maximum number of cached estimate results.")
	flag.Parse()

	if *catalogDir == "" {
		*catalogDir = os.Getenv("CATALOG_DIR")
	}
	if *catalogDir == "" {
		log.Fatal("catalog directory required: set -catalog or CATALOG_DIR")
	}
	if *port == "" {
		*port = os.Getenv("PORT")
	}
	if *port == "" {
		*port = "8080"
	}

	store, err := catalog.Import(*catalogDir)
	if err != nil {
		log.Fatalf("import catalog: %v", err)
	}
	defer store.Close()

	cache, err := newEstimateCache(*cacheSize)
	if err != nil {
		log.Fatalf("create estimate cache: %v", err)
	}

	app := NewApp(store, cache)
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Listening on http://localhost:%s (catalog=%s)", *port, *catalogDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		os.Exit(1)
	}
	log.Println("Bye")
}
