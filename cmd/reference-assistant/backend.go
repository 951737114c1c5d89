// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reference-assistant/internal/acquire"
	"github.com/pdiddy/reference-assistant/internal/apiclient"
	"github.com/pdiddy/reference-assistant/internal/extract"
	"github.com/pdiddy/reference-assistant/internal/gateway"
	"github.com/pdiddy/reference-assistant/internal/search"
	"github.com/pdiddy/reference-assistant/internal/session"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

var errNoAPIKey = errors.New("gemini API key not configured: put it in .secrets/gemini-api-key or set GEMINI_API_KEY")

// addServerFlag registers --server on commands that can run remotely.
func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().String("server", "", "base URL of a running reference-assistant server (default: call the gateway directly)")
}

// backends returns the extractor and searcher a command should use: an API
// client when --server is set, otherwise in-process services over the gateway.
func backends(cmd *cobra.Command) (session.Extractor, session.Searcher, error) {
	if url, _ := cmd.Flags().GetString("server"); url != "" {
		c := apiclient.New(url, cfg.Gateway.HTTPConfig, logger)
		return c, c, nil
	}
	gw := gateway.NewClient(cfg.Gateway, logger)
	if !gw.Configured() {
		return nil, nil, errNoAPIKey
	}
	return extract.NewService(gw, logger), search.NewService(gw, cfg.Search, logger), nil
}

// newController returns a session controller over the command's backends.
func newController(cmd *cobra.Command) (*session.Controller, error) {
	e, s, err := backends(cmd)
	if err != nil {
		return nil, err
	}
	return session.New(e, s, cfg.Session, logger), nil
}

// loadDocument returns the upload named by source: a local file when one
// exists at that path, otherwise a download of the arXiv ID, DOI, or URL.
func loadDocument(ctx context.Context, source string) (types.Document, error) {
	if _, err := os.Stat(source); err != nil && acquire.IsRemote(source) {
		return acquire.NewFetcher(cfg.Gateway.HTTPConfig, logger).Fetch(ctx, source)
	}
	return readDocument(source)
}

// readDocument loads path as an upload. The content type is sniffed from the
// file's leading bytes, falling back to its extension.
func readDocument(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, err
	}
	return types.Document{
		Name:        filepath.Base(path),
		ContentType: contentType(path, data),
		Data:        data,
	}, nil
}

// pageCount reports the number of pages in doc, or 0 when its structure
// cannot be read.
func pageCount(doc types.Document) int {
	info, err := extract.Inspect(doc.Data)
	if err != nil {
		logger.Debug("document.inspect_failed", "name", doc.Name, "error", err)
		return 0
	}
	return info.Pages
}

func contentType(path string, data []byte) string {
	ct := http.DetectContentType(data)
	if ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			ct = byExt
		}
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}
