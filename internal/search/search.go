// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search looks up a reference on the web through the inference
// gateway and returns a summary with deduplicated grounding sources.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/gateway"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// Fallbacks for fields the gateway leaves empty.
const (
	NoSummary           = "No summary information found."
	FallbackSourceTitle = "Source Link"
)

// Grounder abstracts the gateway so tests can supply a mock.
type Grounder interface {
	GenerateGrounded(ctx context.Context, prompt string) (gateway.GroundedResponse, error)
}

// Service runs reference lookups. One call is one gateway request.
type Service struct {
	g        Grounder
	language string
	log      *slog.Logger
}

// NewService returns a Service backed by g. Summaries are requested in
// cfg.SummaryLanguage (English when empty).
func NewService(g Grounder, cfg types.SearchConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	lang := strings.TrimSpace(cfg.SummaryLanguage)
	if lang == "" {
		lang = "English"
	}
	return &Service{g: g, language: lang, log: logger}
}

// Search asks the gateway about query and returns its summary and sources.
// An empty source list is a valid result. Gateway failures are reported as a
// single upstream error.
func (s *Service) Search(ctx context.Context, query string) (types.SearchOutcome, error) {
	if strings.TrimSpace(query) == "" {
		return types.SearchOutcome{}, apperr.Validation("query is empty")
	}

	prompt, err := renderPrompt(query, s.language)
	if err != nil {
		return types.SearchOutcome{}, apperr.Upstream(apperr.MsgSearchFailed, err)
	}

	s.log.Info("search.start", "query_len", len(query))

	resp, err := s.g.GenerateGrounded(ctx, prompt)
	if err != nil {
		s.log.Error("search.gateway_error", "error", err)
		return types.SearchOutcome{}, apperr.Upstream(apperr.MsgSearchFailed, err)
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		summary = NoSummary
	}

	sources, removed := dedupeSources(resp.Sources)
	s.log.Info("search.ok", "sources", len(sources), "dropped", removed)

	return types.SearchOutcome{Summary: summary, Sources: sources}, nil
}

// dedupeSources coerces gateway chunks into GroundingSources: entries without
// a URI are dropped, missing titles get a placeholder, and repeated URIs keep
// the first occurrence. It returns the sources and how many chunks were dropped.
func dedupeSources(chunks []gateway.WebSource) ([]types.GroundingSource, int) {
	seen := make(map[string]bool, len(chunks))
	sources := make([]types.GroundingSource, 0, len(chunks))
	removed := 0

	for _, c := range chunks {
		uri := strings.TrimSpace(c.URI)
		if uri == "" || seen[uri] {
			removed++
			continue
		}
		seen[uri] = true

		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = FallbackSourceTitle
		}
		sources = append(sources, types.GroundingSource{URI: uri, Title: title})
	}
	return sources, removed
}
