package revocation

import (
	"github.com/redis/go-redis/v9"

	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"go.uber.org/fx"
)

func ProvideStore(client *redis.Client) Store {
	return NewRedisStore(client)
}

func ProvideRevocationService(store Store, tokenService *tokens.Service, logger *logging.Service) *Service {
	return NewService(store, tokenService, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRevocationService),
)
