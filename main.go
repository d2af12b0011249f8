package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tower-progression-system/handlers"
	"tower-progression-system/middleware"
	"tower-progression-system/models"
	"tower-progression-system/services"
	"tower-progression-system/utils"
	"tower-progression-system/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — JSON only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// R2 is optional: without it oracle transcripts simply aren't archived.
	if os.Getenv("R2_ACCESS_KEY_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 credentials not set — transcript archival disabled")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.Card{},
		&models.CardInstance{},
		&models.Deck{},
		&models.DeckCard{},
		&models.TowerFloor{},
		&models.TowerGameSession{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	progressService := services.NewTowerProgressService(db)
	if err := progressService.EnsureSystemAccount(services.AISystemAccountID); err != nil {
		log.Fatal("failed to ensure AI system account:", err)
	}

	catalog := services.NewCardCatalog(db)
	deckService := services.NewDeckService(db)

	// --- Generation pipeline: oracle with deterministic fallback ---
	var oracle services.FloorGenerator
	oracleImpl, err := services.NewOracleFloorGenerator(services.OracleConfig{
		APIKey:     os.Getenv("ORACLE_API_KEY"),
		ModelName:  os.Getenv("ORACLE_MODEL"),
		Timeout:    envInt("ORACLE_TIMEOUT_SECONDS", 0),
		MaxRetries: envInt("ORACLE_MAX_RETRIES", 0),
	}, db, catalog)
	if err != nil {
		log.Printf("⚠️  Content oracle disabled (%v) — floor generation runs on the fallback generator", err)
	} else {
		oracle = oracleImpl
	}
	fallback := services.NewFallbackFloorGenerator(catalog, time.Now().UnixNano())

	generationService := services.NewFloorGenerationService(db, progressService, deckService, catalog, oracle, fallback)
	generationWorker := workers.NewFloorGenerationWorker(generationService)

	// --- Rules engine + auth clients ---
	rulesEngineURL := os.Getenv("RULES_ENGINE_URL")
	if rulesEngineURL == "" {
		log.Fatal("RULES_ENGINE_URL environment variable not set")
	}
	serviceToken := os.Getenv("TOWER_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("TOWER_SERVICE_TOKEN environment variable not set")
	}
	rulesClient := services.NewRulesEngineClient(rulesEngineURL, serviceToken)

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	authClient := services.NewAuthServiceClient(authServiceURL, serviceToken)

	towerService := services.NewTowerService(db, progressService, deckService, catalog, rulesClient, generationWorker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generationWorker.Start(ctx)

	// Mirror profile-service accounts into the local players table.
	profileSyncURL := os.Getenv("PROFILE_SYNC_URL")
	if profileSyncURL == "" {
		log.Fatal("PROFILE_SYNC_URL environment variable not set")
	}
	playerSync := workers.NewPlayerSyncWorker(db, profileSyncURL, "/api/v1/public/profiles", serviceToken)
	playerSync.Start(ctx)

	// Daily check that the generated frontier stays ahead of the players.
	generationService.StartLookaheadScheduler(generationWorker)

	// Seed the tower on first boot.
	if maxFloor, err := progressService.MaxFloorNumber(); err == nil && maxFloor == 0 {
		generationWorker.RequestGeneration("initial tower seed")
	}

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupTowerRoutes(app, towerService, progressService, generationWorker, authClient)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Floor Generation Worker running")
	log.Println("✅ Player Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default", key, v)
		return fallback
	}
	return n
}
