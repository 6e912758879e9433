package options

import (
	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"go.uber.org/fx"
)

type Options struct {
	Config         *config.Config
	ExtraModels    []any
	EnableMail     bool
	ExtraFxOptions []fx.Option
}

type Option func(*Options)

func WithConfig(cfg *config.Config) Option {
	return func(opts *Options) {
		opts.Config = cfg
	}
}

// WithModels migrates additional gorm models alongside the built-in ones.
func WithModels(models ...any) Option {
	return func(opts *Options) {
		opts.ExtraModels = append(opts.ExtraModels, models...)
	}
}

func WithMail() Option {
	return func(opts *Options) {
		opts.EnableMail = true
	}
}

func WithFxOptions(fxOpts ...fx.Option) Option {
	return func(opts *Options) {
		opts.ExtraFxOptions = append(opts.ExtraFxOptions, fxOpts...)
	}
}
