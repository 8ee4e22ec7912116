package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gwi.com/changelog-service/internal/api"
	"gwi.com/changelog-service/internal/config"
	"gwi.com/changelog-service/internal/core"
	"gwi.com/changelog-service/internal/gh"
	"gwi.com/changelog-service/internal/greptile"
	"gwi.com/changelog-service/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize external clients
	historyClient, err := gh.NewClient(cfg.GitHubToken, "")
	if err != nil {
		log.Fatalf("Failed to initialize GitHub client: %v", err)
	}
	inferenceClient := greptile.NewClient(cfg.GreptileBaseURL, cfg.GreptileAPIKey, cfg.GitHubToken, cfg.DefaultBranch)

	// Initialize generation workflow
	generator := core.NewGeneratorService(historyClient, inferenceClient, dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(generator, historyClient, inferenceClient, dbStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Inference calls over large diffs can take a while
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received
	log.Println("Shutting down server...")

	// Give in-flight generation requests time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
