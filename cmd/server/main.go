package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/config"
	"github.com/fadilmartias/mentor-progress/internal/domain/fiber/handler"
	"github.com/fadilmartias/mentor-progress/internal/middleware"
	"github.com/fadilmartias/mentor-progress/internal/model"
	"github.com/fadilmartias/mentor-progress/internal/repository"
	"github.com/fadilmartias/mentor-progress/internal/service"
	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/fadilmartias/mentor-progress/internal/usecase"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	if appConfig.IsProduction() {
		fiberlog.SetLevel(fiberlog.LevelInfo)
	} else {
		fiberlog.SetLevel(fiberlog.LevelDebug)
	}

	authConfig := config.LoadAuthConfig()
	if err := authConfig.Validate(); err != nil {
		log.Fatal(err)
	}
	authority, err := session.NewAuthority(authConfig.JWTSecret, authConfig.TokenTTL, authConfig.Issuer)
	if err != nil {
		log.Fatal(err)
	}

	backend, err := service.NewBackendService(config.LoadBackendConfig())
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			// Status code defaults to 500
			code := fiber.StatusInternalServerError

			// Retrieve the custom status code if it's a *fiber.Error
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	// Use middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // 1
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.IsProduction()
		},
	}))
	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(c *fiber.Ctx) bool {
			_, open := backend.GetCircuitBreakerStatus()
			return !open
		},
	}))

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	limits := config.LoadRateLimitConfig()
	app.Use(middleware.RateLimiter(limits.Max, limits.Expiration))

	var (
		snapshots usecase.SnapshotStore
		requests  usecase.CallRequestStore
	)
	if config.LoadDBConfig().Host == "" {
		log.Println("DB_HOST not set, keeping snapshots in memory")
		snapshots = repository.NewMemorySnapshotRepository()
		requests = repository.NewMemoryCallRequestRepository()
	} else {
		db := ConnectDB()
		snapshots = repository.NewProgressSnapshotRepository(db)
		requests = repository.NewCallRequestRepository(db)
	}

	uc := usecase.NewProgressUsecase(backend, snapshots, requests)
	handler := handler.NewProgressHandler(uc, backend)

	handler.RegisterRoutes(app, authority)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			fiberlog.Debugf("Active goroutines: %d", runtime.NumGoroutine())
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Println("Server running on ", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal(err)
	}
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(100)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	// uuid_generate_v4 is used for primary keys
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("could not enable uuid-ossp: ", err)
	}
	err = db.AutoMigrate(&model.ProgressSnapshot{}, &model.CallRequest{})
	if err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}
