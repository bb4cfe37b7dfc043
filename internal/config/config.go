package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	DatabaseDSN    string        `env:"DATABASE_URI"`
	MigrationsDir  string        `env:"MIGRATIONS_DIR"`
	JWTUserSecret  string        `env:"JWT_USER_SECRET"`
	GatewayBaseURL string        `env:"GATEWAY_BASE_URL"`
	GatewayKeyID   string        `env:"GATEWAY_KEY_ID"`
	GatewaySecret  string        `env:"GATEWAY_KEY_SECRET"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"5s"`
	Currency       string        `env:"CURRENCY" envDefault:"INR"`
}

func LoadConfig() (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.JWTUserSecret == "" {
		return nil, errors.New("JWT secret is not set")
	}
	if conf.GatewaySecret == "" {
		return nil, errors.New("gateway key secret is not set")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	flag.StringVar(&flagConfig.JWTUserSecret, "j", "", "JWT signing secret")
	flag.StringVar(&flagConfig.GatewayBaseURL, "g", "", "Payment gateway base URL")
	flag.StringVar(&flagConfig.GatewayKeyID, "k", "", "Payment gateway key id")
	flag.StringVar(&flagConfig.GatewaySecret, "s", "", "Payment gateway key secret")

	flag.Parse()
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:     defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:    defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:  defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTUserSecret:  defaultIfBlank(envConfig.JWTUserSecret, flagsConfig.JWTUserSecret),
		GatewayBaseURL: defaultIfBlank(envConfig.GatewayBaseURL, flagsConfig.GatewayBaseURL),
		GatewayKeyID:   defaultIfBlank(envConfig.GatewayKeyID, flagsConfig.GatewayKeyID),
		GatewaySecret:  defaultIfBlank(envConfig.GatewaySecret, flagsConfig.GatewaySecret),
		GatewayTimeout: envConfig.GatewayTimeout,
		Currency:       envConfig.Currency,
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
