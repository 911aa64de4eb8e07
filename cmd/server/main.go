package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/autodrive/test-drive-portal/internal/config"
	"github.com/autodrive/test-drive-portal/internal/database"
	"github.com/autodrive/test-drive-portal/internal/handler"
	"github.com/autodrive/test-drive-portal/internal/queue"
	"github.com/autodrive/test-drive-portal/internal/repository"
	"github.com/autodrive/test-drive-portal/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cars := repository.NewCarRepo(db)
	bookings := repository.NewBookingRepo(db)

	// Dead refresh tokens pile up fast with 30-day expiries; sweep at boot.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if n, err := tokens.PurgeExpired(ctx, 24*time.Hour); err != nil {
		log.Printf("purge expired refresh tokens: %v", err)
	} else if n > 0 {
		log.Printf("purged %d expired refresh tokens", n)
	}
	cancel()

	// Redis is optional; nil disables the catalog cache and rate limiter.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, catalog cache and rate limiting disabled")
	}

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewCatalogHandler(cars), rdb)
	router.RegisterBooking(e, handler.NewBookingHandler(bookings, cars), cfg.JWTSecret)
	router.RegisterSales(e, handler.NewSalesHandler(cars, bookings), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
