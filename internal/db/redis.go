package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/calhub/calendar-service-go/internal/config"
	"github.com/redis/go-redis/v9"
)

func GetRedis(redisURL string, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	if !cfg.IsRedisEnabled {
		logger.Info("redis is disabled by config")
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.New("failed to parse redis url, err: " + err.Error())
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, errors.New("failed to connect to redis: " + err.Error())
	}

	logger.Info("connected to redis")
	return client, nil
}

func CloseRedis(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		return
	}

	if err := client.Close(); err != nil {
		logger.Error("failed to close redis connection", "err", err)
	} else {
		logger.Info("redis connection closed")
	}
}
