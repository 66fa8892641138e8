package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sawtoothmedia/contractdesk/internal/ai"
	"github.com/sawtoothmedia/contractdesk/internal/config"
	"github.com/sawtoothmedia/contractdesk/internal/correction"
	"github.com/sawtoothmedia/contractdesk/internal/dashboard"
	"github.com/sawtoothmedia/contractdesk/internal/database"
	"github.com/sawtoothmedia/contractdesk/internal/directory"
	"github.com/sawtoothmedia/contractdesk/internal/drive"
	"github.com/sawtoothmedia/contractdesk/internal/handlers"
	"github.com/sawtoothmedia/contractdesk/internal/importer"
	"github.com/sawtoothmedia/contractdesk/internal/models"
	"github.com/sawtoothmedia/contractdesk/internal/services/contracts"
	"github.com/sawtoothmedia/contractdesk/internal/store"
	"github.com/sawtoothmedia/contractdesk/internal/websocket"
)

func main() {
	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Synchronize schema
	log.Println("🚀 Synchronizing database schema...")
	if err := db.AutoMigrate(&models.Order{}, &models.ArchivedOrder{}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("✅ Schema synchronized successfully")

	recordStore, err := store.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}

	// 4. External adapters. Missing credentials for the core integrations are
	// fatal; the directory lookup is optional and degrades to 503.
	driveClient, err := drive.NewClient(ctx, cfg.Google)
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive: %v", err)
	}
	placer, err := drive.NewEngine(driveClient, cfg.Drive)
	if err != nil {
		log.Fatalf("Failed to initialize folder placement: %v", err)
	}
	extractor, err := ai.New(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("Failed to initialize the extraction model: %v", err)
	}
	defer extractor.Close()

	var dirClient *directory.Client
	if dirClient, err = directory.NewClient(ctx, cfg.Google); err != nil {
		log.Printf("⚠️ Workspace directory disabled: %v", err)
		dirClient = nil
	}

	// 5. Services
	filing := contracts.New(recordStore, placer, driveClient, extractor)
	clientFix := correction.NewClientNameEngine(recordStore, driveClient, extractor, placer)
	dateFix := correction.NewDateEngine(recordStore, driveClient, extractor, placer)
	marketFix := correction.NewMarketEngine(recordStore, placer)
	imp := importer.New(recordStore, placer, driveClient, extractor, models.MarketBoise)
	dash := dashboard.New(recordStore, extractor)

	hub := websocket.NewHub()
	go hub.Run()

	// 6. HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Store:          recordStore,
		Contracts:      filing,
		ClientFix:      clientFix,
		DateFix:        dateFix,
		MarketFix:      marketFix,
		Importer:       imp,
		Dashboard:      dash,
		Directory:      dirClient,
		Hub:            hub,
		ImportSourceID: cfg.Drive.ImportSourceID,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // merges and imports run long
	}

	go func() {
		log.Printf("🚀 contractdesk listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("⚠️ Database shutdown: %v", err)
	}
	log.Println("✅ Stopped cleanly")
}
