package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"club-career-system/handlers"
	"club-career-system/middleware"
	"club-career-system/models"
	"club-career-system/services"
	"club-career-system/sim"
	"club-career-system/utils"
	"club-career-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 The engine only talks to the frontend service, never browsers
	// directly. Every request must carry the service token.
	app.Use(middleware.ServiceTokenMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitBackupStore(); err != nil {
		log.Fatal("failed to initialize backup store:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Save{},
		&models.League{},
		&models.Team{},
		&models.Player{},
		&models.Staff{},
		&models.Match{},
		&models.Sponsor{},
		&models.StadiumProject{},
		&models.TrainingCycle{},
		&models.News{},
		&models.History{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Worker pool for match resolution. Foreground and background matches
	// share the same pool; sizing follows SIM_WORKERS.
	workerCount := 4
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workerCount = n
		}
	}
	engine := sim.NewEngine(time.Now().UnixNano())
	pool := workers.NewMatchPool(workerCount, engine)
	pool.Start(ctx)

	foregroundTimeout := 30 * time.Second
	if v := os.Getenv("FOREGROUND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			foregroundTimeout = time.Duration(n) * time.Second
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	newsService := services.NewNewsService(db)
	rosterService := services.NewRosterService(db, rng)
	matchService := services.NewMatchService(db, pool, newsService)
	seasonService := services.NewSeasonService(db, newsService)
	financeService := services.NewFinanceService(db, newsService, rng)
	conditionService := services.NewConditionService(db, newsService)
	trainingService := services.NewTrainingService(db, newsService)
	backupService := services.NewBackupService(db)
	worldService := services.NewWorldService(db, newsService, rng)
	dayService := services.NewDayService(db, matchService, rosterService, seasonService,
		financeService, conditionService, trainingService, newsService, backupService,
		foregroundTimeout)

	scheduler, err := backupService.StartSnapshotScheduler()
	if err != nil {
		log.Fatal("failed to start snapshot scheduler:", err)
	}
	defer func() { _ = scheduler.Shutdown() }()

	handlers.SetupSaveRoutes(app, worldService, dayService, trainingService, newsService, db)
	handlers.SetupLeagueRoutes(app, db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Engine running on http://localhost:%s", port)
	log.Printf("✅ Match pool running with %d workers", workerCount)
	log.Println("✅ ServiceTokenMiddleware enforced globally")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
