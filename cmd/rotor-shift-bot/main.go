package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rotor-shift-bot/internal/cache"
	"rotor-shift-bot/internal/config"
	"rotor-shift-bot/internal/database"
	"rotor-shift-bot/internal/logger"
	"rotor-shift-bot/internal/repository"
	"rotor-shift-bot/internal/rotor"
	"rotor-shift-bot/internal/service"
	"rotor-shift-bot/internal/vk"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "rotor-shift-bot")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting rotor-shift-bot",
		zap.Int("group_id", cfg.VK.GroupID),
		zap.Int64("peer_id", cfg.VK.ChatPeerID),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	assignments := repository.NewAssignmentRepository(db, log)
	if err := assignments.EnsureSchema(); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	vkClient := vk.NewClient("", cfg.VK.Token, log)
	api := rotor.NewClient(cfg.API.BaseURL, cfg.API.Company, log)

	refs := cache.NewRefCache(api, log)
	identity := cache.NewIdentityCache(cache.NewRedisKVStore(redisClient), vkClient, log)

	bot := service.NewBot(cfg.VK.ChatPeerID, assignments, refs, identity, vkClient, log)
	poller := vk.NewLongPoller(vkClient, cfg.VK.GroupID, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx, poller); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		log.Error("Bot stopped with error", zap.Error(err))
		cancel()
	}

	log.Info("Service stopped")
}
