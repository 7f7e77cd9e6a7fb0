package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/transfermar/booking-backend/internal/config"
	"github.com/transfermar/booking-backend/internal/database"
	"github.com/transfermar/booking-backend/internal/handler"
	custommw "github.com/transfermar/booking-backend/internal/middleware"
	"github.com/transfermar/booking-backend/internal/queue"
	"github.com/transfermar/booking-backend/internal/repository"
	"github.com/transfermar/booking-backend/internal/router"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional; a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	orderRepo := repository.NewServiceOrderRepo(db)
	queueRepo := repository.NewQueueRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	customerHandler := handler.NewCustomerHandler(bookingRepo, queueRepo, orderRepo)
	adminQueueHandler := handler.NewAdminQueueHandler(queueRepo, bookingRepo)
	adminCompanyHandler := handler.NewAdminCompanyHandler(companyRepo, queueRepo)
	portalHandler := handler.NewCompanyPortalHandler(userRepo, orderRepo)
	publicHandler := &handler.PublicHandler{CompanyRepo: companyRepo}

	e := echo.New()
	e.HideBanner = true

	e.Use(custommw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := custommw.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, cacheMW)
	router.RegisterCustomer(e, customerHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminQueueHandler, adminCompanyHandler, cfg.JWTSecret)
	router.RegisterCompanyPortal(e, portalHandler, cfg.JWTSecret)

	// Audit-log every assignment event published by booking dispatch.
	go queue.StartAssignmentConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
