package credentials

import (
	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"go.uber.org/fx"
)

func ProvideCredentialsService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideCredentialsService),
)
