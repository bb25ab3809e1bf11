package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port               int    `env:"PORT" envDefault:"8080"`
	DatabaseURL        string `env:"DATABASE_URL,required"`
	RedisURL           string `env:"REDIS_URL,required"`
	LLMAPIKey          string `env:"LLM_API_KEY,required"`
	LLMBaseURL         string `env:"LLM_BASE_URL" envDefault:""`
	LLMModel           string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	ApprovalTTLSeconds int    `env:"APPROVAL_TTL_SECONDS" envDefault:"300"`
	StreamDelayMillis  int    `env:"STREAM_DELAY_MS" envDefault:"20"`
	RateLimitPerMin    int    `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	Environment        string `env:"ENVIRONMENT" envDefault:"development"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) ApprovalTTL() time.Duration {
	return time.Duration(c.ApprovalTTLSeconds) * time.Second
}

func (c *Config) StreamDelay() time.Duration {
	return time.Duration(c.StreamDelayMillis) * time.Millisecond
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.ApprovalTTLSeconds <= 0 {
		return fmt.Errorf("APPROVAL_TTL_SECONDS must be positive, got %d", c.ApprovalTTLSeconds)
	}
	if c.StreamDelayMillis < 0 {
		return fmt.Errorf("STREAM_DELAY_MS must not be negative, got %d", c.StreamDelayMillis)
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", c.RateLimitPerMin)
	}

	if isProduction {
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if strings.HasPrefix(c.LLMBaseURL, "http://") {
			log.Warn().Msg("LLM_BASE_URL uses plain http:// in production: API keys travel unencrypted")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
