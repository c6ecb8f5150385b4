package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	ContentStatic = "static"
	ContentStore  = "store"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Redis      Redis      `yaml:"redis"`
	Postgres   Postgres   `yaml:"postgres"`
	Mongo      Mongo      `yaml:"mongo"`
	Content    Content    `yaml:"content"`
	Adaptive   Adaptive   `yaml:"adaptive"`
	Inference  Inference  `yaml:"inference"`
	Recommend  Recommend  `yaml:"recommend"`
	Auth       Auth       `yaml:"auth"`
	Assessment Assessment `yaml:"assessment"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      string `yaml:"ttl" env:"REDIS_TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI"`
	Database string `yaml:"database" env:"MONGO_DATABASE"`
}

// Content selects where questions come from: the built-in bank or the configured store.
type Content struct {
	Source string `yaml:"source" env:"CONTENT_SOURCE"`
	TTL    string `yaml:"ttl" env:"CONTENT_TTL"`
}

// Adaptive points at a remote scoring service. Empty BaseURL serves it in-process.
type Adaptive struct {
	BaseURL string `yaml:"base_url" env:"ADAPTIVE_BASE_URL"`
	Timeout string `yaml:"timeout" env:"ADAPTIVE_TIMEOUT"`
}

type Inference struct {
	Token         string `yaml:"token" env:"HF_TOKEN"`
	SentimentURL  string `yaml:"sentiment_url" env:"HF_SENTIMENT_URL"`
	TranscribeURL string `yaml:"transcribe_url" env:"HF_TRANSCRIBE_URL"`
	Timeout       string `yaml:"timeout" env:"HF_TIMEOUT"`
}

type Recommend struct {
	OnetAPIKey  string `yaml:"onet_api_key" env:"ONET_API_KEY"`
	OnetBaseURL string `yaml:"onet_base_url" env:"ONET_BASE_URL"`
}

type Auth struct {
	AdminUsername string `yaml:"admin_username" env:"ADMIN_USERNAME"`
	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
	JWTSecret     string `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL      string `yaml:"token_ttl" env:"ADMIN_TOKEN_TTL"`
}

type Assessment struct {
	ItemTimeout     string `yaml:"item_timeout" env:"ITEM_TIMEOUT"`
	CaptureTimeout  string `yaml:"capture_timeout" env:"CAPTURE_TIMEOUT"`
	GameTimeLimit   string `yaml:"game_time_limit" env:"GAME_TIME_LIMIT"`
	GameMaxAttempts int    `yaml:"game_max_attempts" env:"GAME_MAX_ATTEMPTS"`
	MediaTTL        string `yaml:"media_ttl" env:"MEDIA_TTL"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "2h"
	cfg.Mongo.Database = "pathfinder"
	cfg.Content.Source = ContentStatic
	cfg.Content.TTL = "10m"
	cfg.Adaptive.Timeout = "10s"
	cfg.Inference.Timeout = "30s"
	cfg.Auth.TokenTTL = "12h"
	cfg.Assessment.ItemTimeout = "75s"
	cfg.Assessment.CaptureTimeout = "75s"
	cfg.Assessment.GameTimeLimit = "120s"
	cfg.Assessment.GameMaxAttempts = 15
	cfg.Assessment.MediaTTL = "1h"
	return cfg
}

// Load reads YAML config from path, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Content.Source != ContentStatic && cfg.Content.Source != ContentStore {
		return cfg, fmt.Errorf("content.source must be %q or %q, got %q", ContentStatic, ContentStore, cfg.Content.Source)
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
