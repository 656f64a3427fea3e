package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"logs.txt"`

	AutosaveIntervalS int `env:"AUTOSAVE_INTERVAL_S" envDefault:"300"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
