// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gateway is the client for the remote inference gateway (the Gemini
// generateContent API). It exposes two capabilities: structured generation
// over an inline document, and free-text generation grounded in web search.
// Callers treat both as opaque; all prompt and schema shaping happens in the
// extract and search packages.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pdiddy/reference-assistant/internal/httputil"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// ErrNoAPIKey is returned by every call when the client has no credential.
var ErrNoAPIKey = errors.New("gateway API key not configured")

// ErrEmptyResponse is returned when the gateway answers without candidates.
var ErrEmptyResponse = errors.New("gateway returned no candidates")

// Client calls the gateway. It is safe for concurrent use.
type Client struct {
	cfg     types.GatewayConfig
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient returns a client for cfg. Zero-valued fields take the package
// defaults; a nil logger uses slog.Default.
func NewClient(cfg types.GatewayConfig, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = types.DefaultGatewayBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = types.DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: httputil.NewLimiter(cfg.RequestsPerSecond),
		log:     logger,
	}
}

// Configured reports whether the client has a credential.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Model returns the model identifier in use.
func (c *Client) Model() string {
	return c.cfg.Model
}

// InlineDocument is a binary document sent alongside a prompt.
type InlineDocument struct {
	MIMEType string
	Data     []byte
}

// StructuredRequest asks the model to answer in JSON conforming to Schema.
// Schema uses JSON Schema vocabulary and is translated to the gateway's
// schema dialect before sending.
type StructuredRequest struct {
	Prompt   string
	Document *InlineDocument
	Schema   map[string]any
}

// GenerateStructured sends req and returns the model's raw JSON text. An
// empty string means the model produced no text.
func (c *Client) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	var parts []part
	if req.Document != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: req.Document.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(req.Document.Data),
		}})
	}
	parts = append(parts, part{Text: req.Prompt})

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   ToGeminiSchema(req.Schema),
		},
	}

	resp, err := c.generate(ctx, "structured", body)
	if err != nil {
		return "", err
	}
	return resp.text(), nil
}

// WebSource is one grounding chunk pointing at a web page. Either field may
// be empty; callers decide how to coerce.
type WebSource struct {
	URI   string
	Title string
}

// GroundedResponse is the text answer plus the web sources the gateway used.
type GroundedResponse struct {
	Text    string
	Sources []WebSource
}

// GenerateGrounded sends prompt with the web search tool enabled.
func (c *Client) GenerateGrounded(ctx context.Context, prompt string) (GroundedResponse, error) {
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	}

	resp, err := c.generate(ctx, "grounded", body)
	if err != nil {
		return GroundedResponse{}, err
	}

	out := GroundedResponse{Text: resp.text()}
	if gm := resp.Candidates[0].GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			out.Sources = append(out.Sources, WebSource{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out, nil
}

// generate posts one generateContent request. It never retries.
func (c *Client) generate(ctx context.Context, kind string, body generateRequest) (*generateResponse, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	rid := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	c.log.Info("gateway.request",
		"req_id", rid,
		"kind", kind,
		"model", c.cfg.Model,
		"content_length", len(bs),
	)

	resp, err := httputil.Do(ctx, c.http, c.limiter, req)
	if err != nil {
		c.log.Error("gateway.send_error",
			"req_id", rid, "kind", kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		c.log.Error("gateway.decode_error",
			"req_id", rid, "kind", kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decoding gateway response: %w", err)
	}

	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		c.log.Warn("gateway.blocked",
			"req_id", rid, "kind", kind, "reason", gr.PromptFeedback.BlockReason,
		)
		return nil, fmt.Errorf("gateway blocked prompt: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		c.log.Error("gateway.no_candidates", "req_id", rid, "kind", kind)
		return nil, ErrEmptyResponse
	}

	c.log.Info("gateway.response",
		"req_id", rid,
		"kind", kind,
		"finish_reason", gr.Candidates[0].FinishReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &gr, nil
}
