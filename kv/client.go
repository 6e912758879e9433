package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// NewClient connects to the shared key-value store used for token revocation
// entries and rate-limit counters. Components share the one client but write
// under distinct key prefixes.
func NewClient(cfg *config.Config, logger *logging.Service) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	// Fail fast at startup rather than on the first authenticated request.
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if logger != nil {
		logger.Info("connected to shared key-value store", zap.String("addr", opt.Addr))
	}

	return client, nil
}
