package app

import (
	"github.com/j-c-fstk-dev/chatbot-platform/internal/options"
)

// New assembles an App from functional options. It is the front door used by
// the root package; the builder remains available for finer control.
func New(opts ...options.Option) (*App, error) {
	resolved := &options.Options{}
	for _, opt := range opts {
		opt(resolved)
	}

	builder := NewApp()

	if resolved.Config != nil {
		builder.WithConfig(resolved.Config)
	}
	if len(resolved.ExtraModels) > 0 {
		builder.WithModels(resolved.ExtraModels...)
	}
	if resolved.EnableMail {
		builder.WithMail()
	}
	if len(resolved.ExtraFxOptions) > 0 {
		builder.WithFxOptions(resolved.ExtraFxOptions...)
	}

	return builder.Build()
}
