package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"affiliate-service/config"
	"affiliate-service/internal/database"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/router"
	"affiliate-service/internal/service"
	"affiliate-service/internal/sweeper"
	"affiliate-service/internal/ws"
	"affiliate-service/pkg/currency"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}
	cfg := config.Load()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db)

	hub := ws.NewHub()
	converter := currency.NewConverter(cfg.Currency.RateURL, cfg.Currency.RateTTL, cfg.Currency.Fallback)

	engine := router.Setup(cfg, db, router.Deps{Hub: hub, Converter: converter})

	attributionSvc := service.NewAttributionService(
		db,
		repository.NewAttributionRepository(db),
		repository.NewAffiliateRepository(db),
		repository.NewSettingRepository(db),
	)
	sw := sweeper.New(attributionSvc)
	if err := sw.Start(cfg.Sweeper.Interval); err != nil {
		log.Fatalf("sweeper: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	sw.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	log.Println("server stopped")
}
