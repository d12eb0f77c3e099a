package main

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	client "github.com/peteraglen/tinder-go-client"
)

type config struct {
	BaseURL             string        `env:"TINDER_BASE_URL" envDefault:"https://api.gotinder.com"`
	XAuthToken          string        `env:"TINDER_X_AUTH_TOKEN"`
	FacebookID          string        `env:"TINDER_FACEBOOK_ID"`
	FacebookToken       string        `env:"TINDER_FACEBOOK_TOKEN"`
	Proxy               string        `env:"TINDER_PROXY"`
	Timeout             time.Duration `env:"TINDER_TIMEOUT" envDefault:"30s"`
	MaxRateLimitRetries int           `env:"TINDER_MAX_RATE_LIMIT_RETRIES" envDefault:"0"`
}

var errNoCredentials = errors.New("set TINDER_X_AUTH_TOKEN or TINDER_FACEBOOK_ID and TINDER_FACEBOOK_TOKEN")

// loadConfig reads the environment, after loading envFile when it exists.
func loadConfig(envFile string) (config, error) {
	if envFile != "" {
		// The file is optional.
		_ = godotenv.Load(envFile)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}

	if cfg.XAuthToken == "" && cfg.FacebookToken == "" {
		return config{}, errNoCredentials
	}

	return cfg, nil
}

func (c config) credentials() client.Credentials {
	return client.Credentials{
		FacebookID:    c.FacebookID,
		FacebookToken: c.FacebookToken,
		XAuthToken:    c.XAuthToken,
	}
}

func (c config) options(logger client.RequestLogger) []client.Option {
	return []client.Option{
		client.WithProxy(c.Proxy),
		client.WithTimeout(c.Timeout),
		client.WithMaxRateLimitRetries(c.MaxRateLimitRetries),
		client.WithRequestLogger(logger),
	}
}
