package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/mesafina/table-reservation/internal/config"
	"github.com/mesafina/table-reservation/internal/database"
	"github.com/mesafina/table-reservation/internal/handler"
	"github.com/mesafina/table-reservation/internal/middleware"
	"github.com/mesafina/table-reservation/internal/queue"
	"github.com/mesafina/table-reservation/internal/repository"
	"github.com/mesafina/table-reservation/internal/router"
	"github.com/mesafina/table-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the HTTP response cache and the rate limiter.  A nil
	// client disables both; the service still runs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)
	waitlist := repository.NewWaitlistRepo(db)

	statusCache := service.NewStatusCache(cfg.TableStatusCacheTTL, nil)
	statusEngine := service.NewStatusEngine(reservations, tables, statusCache, service.StatusConfig{
		ServiceDurationMin: cfg.ServiceDurationMin,
		ReservedSoonMin:    cfg.ReservedSoonMin,
		NextWindowMin:      cfg.NextWindowMin,
	}, nil)
	availability := service.NewAvailability(reservations, tables)
	lifecycle := service.NewLifecycleManager(db, reservations, tables, availability,
		nil, queue.NewPublisher(), statusCache,
		service.LifecycleConfig{ServiceDurationMin: cfg.ServiceDurationMin}, nil)
	waitlistMgr := service.NewWaitlistManager(waitlist, tables, statusEngine, lifecycle,
		service.WaitlistConfig{
			WaitPerPositionMin: cfg.WaitPerPositionMin,
			WalkInMinBufferMin: cfg.WalkInMinBufferMin,
		}, nil)

	authHandler := handler.NewAuthHandler(cfg, users)
	reservationHandler := handler.NewReservationHandler(lifecycle)
	availabilityHandler := handler.NewAvailabilityHandler(availability)
	tableStatusHandler := handler.NewTableStatusHandler(statusEngine)
	adminTableHandler := handler.NewAdminTableHandler(tables, reservations, statusCache)
	waitlistHandler := handler.NewWaitlistHandler(waitlistMgr)

	// Consumes reservation events: review requests on completion and
	// operator alerts for failed refunds.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e, availabilityHandler)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCustomer(e, reservationHandler, waitlistHandler, cfg.JWTSecret)
	router.RegisterStaff(e, reservationHandler, tableStatusHandler, adminTableHandler, waitlistHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
