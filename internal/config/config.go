package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/catalog"
	"github.com/vovakirdan/roomchat-server/internal/core"
)

// ChatConfig holds message relay settings.
type ChatConfig struct {
	RequireMembership bool `mapstructure:"require_membership" yaml:"require_membership"`
	MaxMessageLength  int  `mapstructure:"max_message_length" yaml:"max_message_length"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath   string `mapstructure:"database_path" yaml:"database_path"`
	UploadDir      string `mapstructure:"upload_dir" yaml:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	JWTRequired bool          `mapstructure:"jwt_required" yaml:"jwt_required"`

	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxMessageBytes    int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	OutboxSize         int      `mapstructure:"outbox_size" yaml:"outbox_size"`
	OverflowPolicy     string   `mapstructure:"overflow_policy" yaml:"overflow_policy"`

	Chat  ChatConfig       `mapstructure:"chat" yaml:"chat"`
	Rooms catalog.Catalog `mapstructure:"rooms" yaml:"rooms"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		DatabasePath:       "roomchat.db",
		UploadDir:          "uploads",
		MaxUploadBytes:     10 << 20,
		JWTSecret:          "change-me",
		JWTIssuer:          "roomchat",
		JWTAudience:        "roomchat",
		JWTTTL:             24 * time.Hour,
		JWTRequired:        true,
		AllowedOrigins:     []string{"*"},
		MaxMessageBytes:    1 << 20,
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,
		OutboxSize:         64,
		OverflowPolicy:     string(core.OverflowDropOldest),
		Chat: ChatConfig{
			MaxMessageLength: 2000,
		},
		Rooms: catalog.Default(),
	}
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	if _, err := core.ParseOverflowPolicy(c.OverflowPolicy); err != nil {
		return err
	}
	if err := c.Rooms.Validate(); err != nil {
		return fmt.Errorf("rooms: %w", err)
	}
	if c.JWTRequired && c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required when jwt_required is set")
	}
	if c.OutboxSize <= 0 {
		return fmt.Errorf("outbox_size must be positive")
	}
	return nil
}

// CoreOptions translates the config into hub options.
func (c *Config) CoreOptions() core.Options {
	policy, _ := core.ParseOverflowPolicy(c.OverflowPolicy)
	return core.Options{
		Rooms:      c.Rooms.Names(),
		OutboxSize: c.OutboxSize,
		Overflow:   policy,
		Relay: core.RelayOptions{
			RequireMembership: c.Chat.RequireMembership,
			MaxTextLength:     c.Chat.MaxMessageLength,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.UploadDir != "" {
		c.UploadDir = other.UploadDir
	}
}
