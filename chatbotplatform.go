package chatbotplatform

import (
	"github.com/j-c-fstk-dev/chatbot-platform/app"
	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/internal/options"
	"go.uber.org/fx"
)

type App = app.App

func New(opts ...options.Option) (*App, error) {
	return app.New(opts...)
}

func WithConfig(cfg *config.Config) options.Option {
	return options.WithConfig(cfg)
}

func WithModels(models ...any) options.Option {
	return options.WithModels(models...)
}

func WithMail() options.Option {
	return options.WithMail()
}

func WithFxOptions(fxOpts ...fx.Option) options.Option {
	return options.WithFxOptions(fxOpts...)
}
