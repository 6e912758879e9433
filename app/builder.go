package app

import (
	"fmt"
	"strings"

	"github.com/j-c-fstk-dev/chatbot-platform/config"
	"github.com/j-c-fstk-dev/chatbot-platform/database"
	"github.com/j-c-fstk-dev/chatbot-platform/handlers"
	"github.com/j-c-fstk-dev/chatbot-platform/kv"
	"github.com/j-c-fstk-dev/chatbot-platform/middleware/ratelimit"
	"github.com/j-c-fstk-dev/chatbot-platform/server"
	"github.com/j-c-fstk-dev/chatbot-platform/services/apikeys"
	"github.com/j-c-fstk-dev/chatbot-platform/services/auth"
	"github.com/j-c-fstk-dev/chatbot-platform/services/credentials"
	"github.com/j-c-fstk-dev/chatbot-platform/services/logging"
	"github.com/j-c-fstk-dev/chatbot-platform/services/mail"
	"github.com/j-c-fstk-dev/chatbot-platform/services/revocation"
	"github.com/j-c-fstk-dev/chatbot-platform/services/tokens"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	withMail  bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithModels migrates additional gorm models alongside the built-in ones.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithMail() *AppBuilder {
	b.withMail = true
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, fmt.Errorf("configuration errors: %v", b.errors)
		}
	}

	if err := b.checkSecrets(); err != nil {
		return nil, err
	}

	logger, err := logging.NewService(logging.Config{
		Level:  b.config.Log.Level,
		Format: b.config.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if insecure := b.config.InsecureDefaults(); len(insecure) > 0 {
		logger.Warn("running with insecure default secrets: " + strings.Join(insecure, ", "))
	}

	models := append([]any{
		&auth.User{},
		&auth.PasswordResetToken{},
		&auth.EmailVerificationToken{},
		&apikeys.APIKey{},
	}, b.models...)

	db, err := database.ProvideDatabase(*b.config, database.WithModels(models...))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		config: b.config,
		logger: logger,
		db:     db,
	}

	fxOptions := []fx.Option{
		config.NewProvider(b.config),
		fx.Supply(logger),
		fx.Supply(db),
		fx.NopLogger,
		kv.Options,
		credentials.Options,
		tokens.Options,
		revocation.Options,
		auth.Options,
		apikeys.Options,
		ratelimit.Options,
		server.NewProvider(),
		handlers.Options,
	}

	if b.withMail {
		fxOptions = append(fxOptions,
			mail.Options,
			fx.Invoke(func(authService *auth.Service, mailService *mail.Service) {
				authService.SetMailService(mailService)
			}),
		)
	}

	fxOptions = append(fxOptions, b.fxOptions...)

	fxOptions = append(fxOptions, fx.Invoke(func(srv *server.Server) {
		app.server = srv
	}))

	app.fx = fx.New(fxOptions...)

	return app, nil
}

// checkSecrets refuses to boot a production deployment on the well-known
// default signing secrets.
func (b *AppBuilder) checkSecrets() error {
	if !b.config.IsProduction() {
		return nil
	}

	if insecure := b.config.InsecureDefaults(); len(insecure) > 0 {
		return fmt.Errorf("insecure default secrets in production: %s", strings.Join(insecure, ", "))
	}

	return nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}
