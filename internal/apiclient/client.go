// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apiclient calls a running reference-assistant server. Client
// satisfies the session controller's Extractor and Searcher interfaces, so a
// session can run against a remote server instead of an in-process gateway.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/extract"
	"github.com/pdiddy/reference-assistant/internal/httputil"
	"github.com/pdiddy/reference-assistant/internal/server"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// Client talks to the extraction and search endpoints.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	log       *slog.Logger
}

// New returns a Client for the server at baseURL.
func New(baseURL string, cfg types.HTTPConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultCallTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		log:       logger,
	}
}

// Extract uploads pdf and returns the references the server found.
func (c *Client) Extract(ctx context.Context, pdf []byte) ([]types.ReferenceItem, error) {
	var resp server.ExtractResponse
	req := server.ExtractRequest{PDFBase64: extract.EncodePayload(pdf)}
	if err := c.post(ctx, server.PathExtract, req, &resp, apperr.MsgExtractFailed); err != nil {
		return nil, err
	}
	if resp.References == nil {
		resp.References = []types.ReferenceItem{}
	}
	return resp.References, nil
}

// Search runs a grounded search for query on the server.
func (c *Client) Search(ctx context.Context, query string) (types.SearchOutcome, error) {
	var out types.SearchOutcome
	if err := c.post(ctx, server.PathSearch, server.SearchRequest{Query: query}, &out, apperr.MsgSearchFailed); err != nil {
		return types.SearchOutcome{}, err
	}
	if out.Sources == nil {
		out.Sources = []types.GroundingSource{}
	}
	return out, nil
}

// post sends body as JSON and decodes a 200 response into out. Failures are
// returned as apperr errors carrying the server's message, or fallback when
// the server sent none.
func (c *Client) post(ctx context.Context, path string, body, out any, fallback string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(server.HeaderRequestID, reqID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := httputil.Do(ctx, c.http, nil, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.log.Error("apiclient.request_failed", "req_id", reqID, "path", path, "elapsed_ms", elapsed, "error", err)
		return classify(err, fallback)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Upstream(fallback, fmt.Errorf("decoding response: %w", err))
	}
	c.log.Debug("apiclient.request", "req_id", reqID, "path", path, "status", resp.StatusCode, "elapsed_ms", elapsed)
	return nil
}

// classify converts a transport or status error into an apperr error.
func classify(err error, fallback string) error {
	var se *httputil.StatusError
	if !errors.As(err, &se) {
		return apperr.Upstream(fallback, err)
	}

	msg := fallback
	var body server.ErrorResponse
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		msg = body.Error
	}

	switch {
	case se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusRequestEntityTooLarge:
		return &apperr.Error{Kind: apperr.KindValidation, Message: msg, Cause: err}
	case msg == apperr.MsgConfiguration:
		return apperr.Configuration(err)
	default:
		return apperr.Upstream(msg, err)
	}
}
