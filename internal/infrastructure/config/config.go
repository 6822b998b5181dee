package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// PhoneRegion is the ISO region used for numbers written without a country code.
	PhoneRegion string `env:"PHONE_REGION, default=US"`

	Tokens TokenConfig
	OTP    OTPConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Mail   MailConfig
}

type TokenConfig struct {
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=30m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	BcryptCost int           `env:"BCRYPT_COST,       default=10"`
}

type OTPConfig struct {
	TTL         time.Duration `env:"OTP_TTL,          default=120s"`
	Retention   time.Duration `env:"OTP_RETENTION,    default=15m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS, default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=farm_backend"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MailConfig struct {
	Driver        string   `env:"MAIL_DRIVER,      default=log"`
	From          string   `env:"MAIL_FROM,        default=no-reply@farm.local"`
	SMTPHost      string   `env:"SMTP_HOST"`
	SMTPPort      int      `env:"SMTP_PORT,        default=587"`
	SMTPUsername  string   `env:"SMTP_USERNAME"`
	SMTPPassword  string   `env:"SMTP_PASSWORD"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS"`
	KafkaTopic    string   `env:"KAFKA_MAIL_TOPIC, default=mail.requests"`
	NotifyWorkers int      `env:"NOTIFY_WORKERS,   default=4"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
// Outside production a .env file in the working directory is loaded first;
// its values never override variables already set in the environment.
func Load(logger zerolog.Logger) (*Config, error) {
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			logger.Debug().Err(err).Msg("no .env file loaded")
		}
	}

	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("config: JWT_SECRET must be at least 32 bytes in production")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("config: OTP_TTL must be positive")
	}
	if c.OTP.Retention < c.OTP.TTL {
		return errors.New("config: OTP_RETENTION must not be shorter than OTP_TTL")
	}
	return nil
}
