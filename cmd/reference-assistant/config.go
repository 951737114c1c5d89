// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/reference-assistant/internal/secrets"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

const (
	envPrefix    = "REFERENCE_ASSISTANT"
	apiKeyEnvVar = "GEMINI_API_KEY"
)

// setDefaults registers every config key with its default so environment
// variables such as REFERENCE_ASSISTANT_GATEWAY_MODEL can override it.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("gateway.base_url", d.Gateway.BaseURL)
	v.SetDefault("gateway.model", d.Gateway.Model)
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.timeout", d.Gateway.Timeout)
	v.SetDefault("gateway.user_agent", d.Gateway.UserAgent)
	v.SetDefault("gateway.requests_per_second", d.Gateway.RequestsPerSecond)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_request_bytes", d.Server.MaxRequestBytes)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("session.call_timeout", d.Session.CallTimeout)
	v.SetDefault("search.summary_language", d.Search.SummaryLanguage)
	v.SetDefault("log_level", d.LogLevel)
}

// loadConfig decodes v into a Config and resolves the gateway credential from, in
// order, the config value, .secrets/gemini-api-key, and GEMINI_API_KEY.
func loadConfig(v *viper.Viper, s secrets.Set) (types.Config, error) {
	c := types.DefaultConfig()
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	c.Gateway.APIKey = s.Resolve(strings.TrimSpace(v.GetString("gateway.api_key")), secrets.GeminiAPIKey, apiKeyEnvVar)
	return c, nil
}

// newLogger returns a text logger at the named level; unknown levels fall
// back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
