// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire fetches a document named by an arXiv ID, DOI, or URL so it
// can be submitted like a local upload. Documents are held in memory only.
package acquire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/pdiddy/reference-assistant/internal/httputil"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// NewFetcher returns a Fetcher using cfg's timeout and User-Agent.
func NewFetcher(cfg types.HTTPConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultCallTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		log:       logger,
	}
}

// IsRemote reports whether s names a document Fetch can retrieve.
func IsRemote(s string) bool {
	t, _ := Classify(s)
	return t != TypeUnknown
}

// Fetch resolves identifier and downloads it. At most
// types.MaxDocumentSize+1 bytes are read; a larger document then fails the
// session's size check.
func (f *Fetcher) Fetch(ctx context.Context, identifier string) (types.Document, error) {
	idType, normalized := Classify(identifier)
	if idType == TypeUnknown {
		return types.Document{}, fmt.Errorf("unrecognized identifier format: %q", identifier)
	}
	url := PDFURL(idType, normalized)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Document{}, fmt.Errorf("creating request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", types.PDFContentType)

	start := time.Now()
	resp, err := httputil.Do(ctx, f.client, nil, req)
	if err != nil {
		f.log.Error("acquire.fetch_failed", "type", idType.String(), "url", url, "error", err)
		return types.Document{}, fmt.Errorf("downloading %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, types.MaxDocumentSize+1))
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %w", normalized, err)
	}

	doc := types.Document{
		Name:        Slug(idType, normalized),
		ContentType: contentType(resp.Header.Get("Content-Type"), data),
		Data:        data,
	}
	f.log.Info("acquire.fetched",
		"type", idType.String(),
		"name", doc.Name,
		"content_type", doc.ContentType,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// contentType prefers the declared media type and sniffs the body when the
// server sent none or a generic one.
func contentType(header string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
