// Package main is the entry point for the Depotrack API server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/depotrack/depotrack/internal/api"
	"github.com/depotrack/depotrack/internal/config"
	"github.com/depotrack/depotrack/internal/database"
	"github.com/depotrack/depotrack/internal/realtime"
	"github.com/depotrack/depotrack/internal/scheduler"
	"github.com/depotrack/depotrack/pkg/logger"
	"github.com/depotrack/depotrack/pkg/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log configuration (without sensitive data)
	log.Printf("Database config: Host=%s, Port=%d, User=%s, Database=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
	log.Printf("Server config: Address=%s", cfg.Server.Address)

	// Initialize logger
	logLevel := "info"
	if cfg.LogLevel >= 5 {
		logLevel = "debug"
	}

	if err := logger.Initialize(logLevel, cfg.Environment != "production"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Depotrack API %s starting", version.Version)

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection: %v", err)
		}
	}()

	// Apply pending schema migrations
	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations: %v", err)
	}

	// Event hub for real-time status updates
	hub := realtime.NewHub()
	defer hub.Close()

	// Setup API router
	router := api.SetupRouter(db, cfg, hub)

	// Create HTTP server. WriteTimeout stays generous because the SSE event
	// stream holds response writers open.
	srv := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting Depotrack API server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Start completed-project archival scheduler
	archivalService := scheduler.NewProjectArchivalService(db, cfg)
	archivalService.Start()
	defer archivalService.Stop()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("Shutting down server...")

	// Stop scheduler first, then drop event subscribers so SSE handlers return
	archivalService.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
