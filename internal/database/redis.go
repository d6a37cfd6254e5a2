package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-bizsuite/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// RedisClient holds the shared cache connection. Client is nil unless
// CACHE_DRIVER=redis.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(lc fx.Lifecycle, cfg *config.Config) (*RedisClient, error) {
	if cfg.CacheDriver != config.CacheDriverRedis {
		return &RedisClient{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Println("Connected to Redis!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &RedisClient{Client: client}, nil
}
