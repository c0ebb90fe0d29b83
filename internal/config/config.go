// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultQdrantURL        = "http://127.0.0.1:6334"
	DefaultQdrantCollection = "suppliers"
	DefaultEmbeddingURL     = "https://api.openai.com"
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultEmbeddingDims    = 1536
	DefaultTransport        = "twilio"
	DefaultSessionIdleTTL   = "30m"
	DefaultInquiryTTL       = "72h"
	DefaultSweepSpec        = "@every 5m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Qdrant     QdrantConfig     `toml:"qdrant"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Transport  TransportConfig  `toml:"transport"`
	Retention  RetentionConfig  `toml:"retention"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// QdrantConfig holds Qdrant base URL, API key, collection name, and timeout.
type QdrantConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Collection     string `toml:"collection"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// EmbeddingsConfig holds the OpenAI-compatible embeddings endpoint settings.
type EmbeddingsConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TransportConfig selects the messaging channel and its credentials.
type TransportConfig struct {
	Type     string         `toml:"type"` // "twilio" or "telegram"
	Twilio   TwilioConfig   `toml:"twilio"`
	Telegram TelegramConfig `toml:"telegram"`
}

// TwilioConfig holds Twilio Messages API credentials and the sending number.
type TwilioConfig struct {
	AccountSID     string `toml:"account_sid"`
	AuthToken      string `toml:"auth_token"`
	FromNumber     string `toml:"from_number"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TelegramConfig holds the bot token for the Telegram channel.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
}

// RetentionConfig bounds in-memory session and inquiry lifetimes.
type RetentionConfig struct {
	SessionIdleTTL string `toml:"session_idle_ttl"`
	InquiryTTL     string `toml:"inquiry_ttl"`
	SweepSpec      string `toml:"sweep_spec"`
}

// SessionIdle returns the parsed session idle TTL, falling back to the default.
func (c RetentionConfig) SessionIdle() time.Duration {
	return parseDurationOr(c.SessionIdleTTL, DefaultSessionIdleTTL)
}

// InquiryAge returns the parsed inquiry TTL, falling back to the default.
func (c RetentionConfig) InquiryAge() time.Duration {
	return parseDurationOr(c.InquiryTTL, DefaultInquiryTTL)
}

func parseDurationOr(raw, fallback string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Qdrant: QdrantConfig{
			BaseURL:    DefaultQdrantURL,
			Collection: DefaultQdrantCollection,
		},
		Embeddings: EmbeddingsConfig{
			BaseURL:    DefaultEmbeddingURL,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultEmbeddingDims,
		},
		Transport: TransportConfig{
			Type: DefaultTransport,
		},
		Retention: RetentionConfig{
			SessionIdleTTL: DefaultSessionIdleTTL,
			InquiryTTL:     DefaultInquiryTTL,
			SweepSpec:      DefaultSweepSpec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
