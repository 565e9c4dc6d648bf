package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/napryag/barber_booking_bot/pkg/booking"
	"github.com/napryag/barber_booking_bot/pkg/utils/errs"
)

type Config struct {
	APIBaseURL         string `yaml:"api_base_url" validate:"required,url"`
	ProviderID         string `yaml:"provider_id" validate:"required"`
	HorizonDays        int    `yaml:"horizon_days"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`

	// From .env / environment.
	BotToken      string
	LoginEmail    string
	LoginPassword string
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	path := filepath.Join("cmd/bot/etc", "app.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("failed to read config file").Wrap(err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New("failed to unmarshal YAML").Wrap(err)
	}

	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = booking.DefaultHorizonDays
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		cfg.HTTPTimeoutSeconds = 10
	}

	// Validate
	if err = validator.New().Struct(cfg); err != nil {
		return nil, errs.New("config validation failed").Wrap(err)
	}
	if _, err = uuid.Parse(cfg.ProviderID); err != nil {
		return nil, errs.New("provider_id is not a valid UUID").Arg("provider_id", cfg.ProviderID).Wrap(err)
	}

	if err = godotenv.Load(); err != nil {
		return nil, errs.New("failed to load .env").Wrap(err)
	}
	cfg.BotToken = os.Getenv("TG_TOKEN")
	if cfg.BotToken == "" {
		return nil, errs.New("empty TG_TOKEN")
	}
	cfg.LoginEmail = os.Getenv("BARBER_API_EMAIL")
	cfg.LoginPassword = os.Getenv("BARBER_API_PASSWORD")

	return &cfg, nil
}
