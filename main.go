package main

import (
	"Moneta/config"
	"Moneta/middleware"
	"Moneta/routes"
	"Moneta/services/coordinator"
	"Moneta/services/lifeevents"
	"Moneta/services/market"
	rediscache "Moneta/services/redis"
	"Moneta/services/roomcrypto"
	"Moneta/services/rooms"
	"Moneta/services/socket_io"
	socketio_types "Moneta/services/socket_io/types"
	"Moneta/sync"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// idleRoomMaxAge is how long a never-started room may sit before the sweeper
// removes it.
const idleRoomMaxAge = 2 * time.Hour

// @title Moneta API
// @version 1.0
// @description Gin-Gonic server for the "Moneta" financial simulation game
// @BasePath /
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
			// Continue execution even if migration fails
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.ConnectRedis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer rediscache.CloseRedis(redisClient)

	// Core services: one registry instance per process, injected explicitly
	// so tests can spin up isolated instances.
	registry := rooms.NewRegistry()
	keyRegistry := roomcrypto.NewKeyRegistry()
	priceSource := market.NewService(gormDB, redisClient)
	eventGen := lifeevents.NewRandomGenerator()
	syncManager := sync.NewSyncManager(sqlDB)

	sio := socketio_types.NewSocketServer()
	coord := coordinator.New(registry, keyRegistry, priceSource, eventGen, syncManager, sio)

	r := gin.Default()
	middleware.SetUpMiddleware(r)
	routes.SetupRoutes(r, gormDB, registry, syncManager)
	(*socket_io.MySocketServer)(sio).Start(r, gormDB, registry, coord)

	// Sweep rooms that were created but never started.
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			for _, code := range registry.CleanupOldRooms(idleRoomMaxAge) {
				coord.CleanupRoom(code)
			}
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server started on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
