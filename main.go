package main

import (
	"context"
	"log"
	"os"
	"time"

	"promptstudio/internal/api"
	"promptstudio/internal/config"
	"promptstudio/internal/redis"
	"promptstudio/internal/service/ai"
	"promptstudio/internal/storage"
	"promptstudio/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("PROMPTSTUDIO_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	driver := cfg.BasicConfig.StorageDriver
	if env := os.Getenv("PROMPTSTUDIO_STORAGE"); env != "" {
		driver = env
	}
	log.Printf("storage driver: %s\n", driver)

	var port store.SnapshotPort
	switch driver {
	case "redis":
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		port = storage.NewRedisStore(rdb)
	default:
		db, err := storage.Open(driver, cfg)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, driver); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		port = storage.NewSQLStore(db)
	}

	sessions := store.New(port)

	ctx := context.Background()
	generator, err := ai.NewService(ctx, cfg.BasicConfig.APIKey)
	if err != nil {
		log.Fatalf("init generation service: %v", err)
	}
	generator.SetVideoPolling(
		time.Duration(cfg.Video.PollIntervalSeconds)*time.Second,
		uint(cfg.Video.MaxPolls),
	)

	handlers := api.NewHandler(sessions, generator)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
