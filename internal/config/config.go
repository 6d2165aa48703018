// Package config содержит логику чтения конфигурации сервиса cardtrack.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultLocalStorePath — каталог локального хранилища карт по умолчанию.
const DefaultLocalStorePath = "./cardtrack-data"

// Config содержит параметры конфигурации сервиса cardtrack.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	AuthAddress    string `env:"AUTH_ADDRESS"`
	AuthAPIKey     string `env:"AUTH_API_KEY"`
	LocalStorePath string `env:"LOCAL_STORE_PATH"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envAuthAddress := cfg.AuthAddress
	envLocalStorePath := cfg.LocalStorePath

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.AuthAddress, "i", "", "identity provider address")
	flag.StringVar(&cfg.LocalStorePath, "s", DefaultLocalStorePath, "local card store directory")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envAuthAddress != "" {
		cfg.AuthAddress = envAuthAddress
	}
	if envLocalStorePath != "" {
		cfg.LocalStorePath = envLocalStorePath
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.LocalStorePath == "" {
		cfg.LocalStorePath = DefaultLocalStorePath
	}

	return cfg, nil
}
