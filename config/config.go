package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	// Shipped defaults so the platform boots out of the box. A production
	// deployment must override every one of these.
	InsecureAccessSecret  = "your-super-secret-jwt-key"
	InsecureRefreshSecret = "your-super-secret-refresh-key"
)

type Config struct {
	App        AppConfig        `envPrefix:"CHATBOT_APP_"`
	Server     ServerConfig     `envPrefix:"CHATBOT_SERVER_"`
	Log        LogConfig        `envPrefix:"CHATBOT_LOG_"`
	Database   DatabaseConfig   `envPrefix:"CHATBOT_DB_"`
	Redis      RedisConfig      `envPrefix:"CHATBOT_REDIS_"`
	JWT        JWTConfig        `envPrefix:"CHATBOT_JWT_"`
	Auth       AuthConfig       `envPrefix:"CHATBOT_AUTH_"`
	Encryption EncryptionConfig `envPrefix:"CHATBOT_ENCRYPTION_"`
	Mail       MailConfig       `envPrefix:"CHATBOT_MAIL_"`
	RateLimit  RateLimitConfig  `envPrefix:"CHATBOT_RATELIMIT_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"Chatbot Platform"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
	Env  string `env:"ENV" envDefault:"development"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"chatbot.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type RedisConfig struct {
	URL string `env:"URL" envDefault:"redis://localhost:6379"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"ACCESS_SECRET" envDefault:"your-super-secret-jwt-key"`
	RefreshSecret string        `env:"REFRESH_SECRET" envDefault:"your-super-secret-refresh-key"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"168h"`
	Issuer        string        `env:"ISSUER" envDefault:"chatbot-platform"`
	Audience      string        `env:"AUDIENCE" envDefault:"chatbot-platform-users"`
}

type AuthConfig struct {
	BcryptCost                   int           `env:"BCRYPT_COST" envDefault:"12"`
	MinPasswordLength            int           `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	PasswordResetTokenLength     int           `env:"PASSWORD_RESET_TOKEN_LENGTH" envDefault:"32"`
	PasswordResetExpiry          time.Duration `env:"PASSWORD_RESET_EXPIRY" envDefault:"1h"`
	EmailVerificationTokenLength int           `env:"EMAIL_VERIFICATION_TOKEN_LENGTH" envDefault:"32"`
	EmailVerificationExpiry      time.Duration `env:"EMAIL_VERIFICATION_EXPIRY" envDefault:"24h"`
}

type EncryptionConfig struct {
	// Hex-encoded 256-bit key for API key encryption at rest. When empty a
	// random per-process key is generated, which makes stored secrets
	// unreadable after a restart.
	Key string `env:"KEY"`
}

type MailConfig struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME"`
}

type RateLimitConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Store   string `env:"STORE" envDefault:"redis"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}

// InsecureDefaults reports which secrets are still running on shipped values.
func (c *Config) InsecureDefaults() []string {
	var insecure []string

	if c.JWT.AccessSecret == InsecureAccessSecret {
		insecure = append(insecure, "CHATBOT_JWT_ACCESS_SECRET")
	}
	if c.JWT.RefreshSecret == InsecureRefreshSecret {
		insecure = append(insecure, "CHATBOT_JWT_REFRESH_SECRET")
	}
	if c.Encryption.Key == "" {
		insecure = append(insecure, "CHATBOT_ENCRYPTION_KEY")
	}

	return insecure
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
