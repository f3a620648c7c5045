package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the aggregation jobs.
type Config struct {
	AppName             string
	AppEnv              string
	DatabaseURL         string
	RedisURL            string
	NatsURL             string
	NatsSubject         string
	UpsertChunkSize     int
	LeaderboardCacheTTL time.Duration
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ATP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "atcoder-problems-updater")
	v.SetDefault("app.env", "development")
	v.SetDefault("nats.subject", "rated_point_sum.updated")
	v.SetDefault("upsert_chunk_size", 10000)
	v.SetDefault("leaderboard.cache_ttl", "1m")

	ttlString := v.GetString("leaderboard.cache_ttl")
	if ttlString == "" {
		ttlString = "1m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NatsURL:             v.GetString("nats.url"),
		NatsSubject:         v.GetString("nats.subject"),
		UpsertChunkSize:     v.GetInt("upsert_chunk_size"),
		LeaderboardCacheTTL: ttl,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.UpsertChunkSize <= 0 {
		cfg.UpsertChunkSize = 10000
	}

	return cfg, nil
}
