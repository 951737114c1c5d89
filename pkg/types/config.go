// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "reference-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// GatewayConfig holds settings for the generative-AI gateway.
type GatewayConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the gateway API root (default the Gemini v1beta endpoint).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the model identifier used for both extraction and search.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the gateway credential. Never logged or returned to clients.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// RequestsPerSecond paces outgoing calls; zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ServerConfig holds settings for the HTTP boundary.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxRequestBytes caps request bodies. The default fits a base64-encoded
	// 20 MiB PDF plus JSON framing.
	MaxRequestBytes int64 `json:"max_request_bytes" yaml:"max_request_bytes" mapstructure:"max_request_bytes"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// SessionConfig holds settings for the application state controller.
type SessionConfig struct {
	// CallTimeout bounds each extraction or search call so a session never
	// stays in a loading state indefinitely.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout" mapstructure:"call_timeout"`
}

// SearchConfig holds settings for reference lookups.
type SearchConfig struct {
	// SummaryLanguage is the language the gateway writes summaries in.
	SummaryLanguage string `json:"summary_language" yaml:"summary_language" mapstructure:"summary_language"`
}

// Config groups all settings for the reference assistant.
type Config struct {
	Gateway  GatewayConfig `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	Server   ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Session  SessionConfig `json:"session" yaml:"session" mapstructure:"session"`
	Search   SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	LogLevel string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Defaults.
const (
	DefaultGatewayBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel          = "gemini-2.5-flash"
	DefaultAddr           = ":8080"
	DefaultCallTimeout    = 90 * time.Second
)

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   DefaultCallTimeout,
				UserAgent: "reference-assistant/0.1",
			},
			BaseURL:           DefaultGatewayBaseURL,
			Model:             DefaultModel,
			RequestsPerSecond: 2,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			MaxRequestBytes: MaxDocumentSize*4/3 + 1<<20,
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			CallTimeout: DefaultCallTimeout,
		},
		Search: SearchConfig{
			SummaryLanguage: "English",
		},
		LogLevel: "info",
	}
}
