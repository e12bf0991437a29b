package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port             int    `env:"PORT" envDefault:"8080"`
	SessionSecret    string `env:"SESSION_SECRET" envDefault:"dev-secret-change-me"`
	RedisURL         string `env:"REDIS_URL"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	SessionTTLHours  int    `env:"SESSION_TTL_HOURS" envDefault:"24"`
	RememberTTLHours int    `env:"REMEMBER_TTL_HOURS" envDefault:"720"`
	BcryptCost       int    `env:"BCRYPT_COST" envDefault:"12"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) RememberTTL() time.Duration {
	return time.Duration(c.RememberTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if c.SessionTTLHours <= 0 || c.RememberTTLHours <= 0 {
		return fmt.Errorf("session TTLs must be positive")
	}
	if c.RememberTTLHours < c.SessionTTLHours {
		return fmt.Errorf("REMEMBER_TTL_HOURS must not be shorter than SESSION_TTL_HOURS")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return &cfg, nil
}
