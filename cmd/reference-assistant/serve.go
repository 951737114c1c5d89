// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reference-assistant/internal/extract"
	"github.com/pdiddy/reference-assistant/internal/gateway"
	"github.com/pdiddy/reference-assistant/internal/search"
	"github.com/pdiddy/reference-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction and search endpoints over HTTP",
	Long: `Serve starts an HTTP server with two JSON endpoints:

  POST /extract-references  {"pdfBase64": "..."}  -> {"references": [...]}
  POST /search-reference    {"query": "..."}      -> {"summary": "...", "sources": [...]}

The server starts without a gateway API key, but every request then fails
with a configuration error. SIGINT or SIGTERM triggers a graceful shutdown.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	gin.SetMode(gin.ReleaseMode)

	gw := gateway.NewClient(cfg.Gateway, logger)
	if !gw.Configured() {
		logger.Warn("gateway.api_key_missing", "hint", "requests will fail until a key is configured")
	}
	logger.Info("gateway.configured", "model", gw.Model())

	srv := server.New(
		cfg.Server,
		extract.NewService(gw, logger),
		search.NewService(gw, cfg.Search, logger),
		version,
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default \":8080\")")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
