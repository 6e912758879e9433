package ratelimit

import (
	"github.com/redis/go-redis/v9"

	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"go.uber.org/fx"
)

func NewStore(cfg *config.Config, client *redis.Client) Store {
	switch cfg.RateLimit.Store {
	case "memory":
		return NewMemoryStore()
	default:
		return NewRedisStore(client)
	}
}

var Options = fx.Options(
	fx.Provide(NewStore),
)
