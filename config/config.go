package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL    string `envconfig:"DATABASE_URL"     default:"database.db"`
	MongoDatabase  string `envconfig:"MONGO_DATABASE"   default:"storefront"`
	Port           string `envconfig:"PORT"             default:"3000"`
	UploadDir      string `envconfig:"UPLOAD_DIR"       default:"uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
	BodyLimitBytes int    `envconfig:"BODY_LIMIT_BYTES" default:"8388608"`
	LogLevel       string `envconfig:"LOG_LEVEL"        default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT"       default:"text"`
}

// UsesMongo reports whether DatabaseURL points at a MongoDB deployment
// rather than a SQLite file.
func (c *Config) UsesMongo() bool {
	return strings.HasPrefix(c.DatabaseURL, "mongodb://") || strings.HasPrefix(c.DatabaseURL, "mongodb+srv://")
}

// Load reads an optional .env file and then the process environment.
func Load(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if int64(cfg.BodyLimitBytes) <= cfg.MaxUploadBytes {
		return nil, fmt.Errorf("BODY_LIMIT_BYTES (%d) must exceed MAX_UPLOAD_BYTES (%d)", cfg.BodyLimitBytes, cfg.MaxUploadBytes)
	}
	return &cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("Unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
