package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL,required"`
	ProviderAPIKey         string `env:"PROVIDER_API_KEY,required"`
	ProviderBaseURL        string `env:"PROVIDER_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	ProviderModel          string `env:"PROVIDER_MODEL" envDefault:"llama-3.1-8b-instant"`
	StreamChunkSize        int    `env:"STREAM_CHUNK_SIZE" envDefault:"4"`
	StreamDelayMillis      int    `env:"STREAM_DELAY_MS" envDefault:"10"`
	ContextWindow          int    `env:"CONTEXT_WINDOW" envDefault:"10"`
	SummaryCacheTTLSeconds int    `env:"SUMMARY_CACHE_TTL_SECONDS" envDefault:"300"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) StreamDelay() time.Duration {
	return time.Duration(c.StreamDelayMillis) * time.Millisecond
}

func (c *Config) SummaryCacheTTL() time.Duration {
	return time.Duration(c.SummaryCacheTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.StreamChunkSize < 1 {
		return fmt.Errorf("STREAM_CHUNK_SIZE must be at least 1")
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("CONTEXT_WINDOW must not be negative")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
