// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the reference-assistant CLI. It serves
// the extraction and search endpoints over HTTP and drives upload sessions
// from the terminal.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reference-assistant/internal/secrets"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, populated before any subcommand runs.
	cfg = types.DefaultConfig()

	// logger writes structured logs to stderr.
	logger = slog.Default()
)

// rootCmd is the base command for the reference-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "reference-assistant",
	Short: "Extract a PDF's bibliography and look up each reference on the web",
	Long: `reference-assistant sends a PDF to a generative-AI gateway, extracts the
bibliography as structured records, and retrieves a web-grounded summary with
source links for any reference you pick.

Run "serve" to expose the HTTP endpoints, or use extract, search, and browse
directly from the terminal. Pass --server to route terminal commands through
a running server instead of calling the gateway in-process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		c, err := loadConfig(viper.GetViper(), s)
		if err != nil {
			return err
		}
		cfg = c
		logger = newLogger(os.Stderr, cfg.LogLevel)
		slog.SetDefault(logger)

		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("secrets.loaded", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./reference-assistant.yaml or ~/.config/reference-assistant/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("model", "", "gateway model identifier")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("gateway.model", rootCmd.PersistentFlags().Lookup("model"))
}

func initConfig() {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("reference-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "reference-assistant"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		slog.Info("config.loaded", "file", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
