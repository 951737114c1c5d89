// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a PDF into an ordered list of reference records by
// asking the inference gateway to read the document's bibliography.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/gateway"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// Generator abstracts the gateway so tests can supply a mock.
type Generator interface {
	GenerateStructured(ctx context.Context, req gateway.StructuredRequest) (string, error)
}

// Service extracts references from documents. One call is one gateway
// request; there are no retries and no partial results.
type Service struct {
	gen Generator
	log *slog.Logger
}

// NewService returns a Service backed by gen.
func NewService(gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, log: logger}
}

// Extract sends pdf to the gateway and returns its references in document
// order. The caller has already validated size and type.
//
// A gateway answer of zero references is a valid empty result. Every other
// failure (gateway error, non-JSON output, schema violation) is reported as
// a single upstream error; the detail is logged, not returned to users.
func (s *Service) Extract(ctx context.Context, pdf []byte) ([]types.ReferenceItem, error) {
	if info, err := Inspect(pdf); err != nil {
		s.log.Warn("extract.inspect_failed", "bytes", len(pdf), "error", err)
	} else {
		s.log.Info("extract.start", "bytes", len(pdf), "pages", info.Pages)
	}

	text, err := s.gen.GenerateStructured(ctx, gateway.StructuredRequest{
		Prompt:   extractionPrompt,
		Document: &gateway.InlineDocument{MIMEType: types.PDFContentType, Data: pdf},
		Schema:   ReferenceSchema(),
	})
	if err != nil {
		s.log.Error("extract.gateway_error", "error", err)
		return nil, apperr.Upstream(apperr.MsgExtractFailed, err)
	}

	refs, err := parseReferences(text)
	if err != nil {
		s.log.Error("extract.parse_error", "error", err, "text_len", len(text))
		return nil, apperr.Upstream(apperr.MsgExtractFailed, err)
	}

	s.log.Info("extract.ok", "references", len(refs))
	return refs, nil
}

// parseReferences validates the model's JSON text against the reference
// schema and coerces it into ReferenceItems. Empty text or an empty array
// yields an empty, non-nil slice.
func parseReferences(text string) ([]types.ReferenceItem, error) {
	text = stripCodeFence(text)
	if text == "" {
		return []types.ReferenceItem{}, nil
	}

	if err := validateReferences([]byte(text)); err != nil {
		return nil, err
	}

	var raw []types.ReferenceItem
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decoding references: %w", err)
	}

	refs := make([]types.ReferenceItem, 0, len(raw))
	for _, r := range raw {
		item := types.ReferenceItem{
			Index:       strings.TrimSpace(r.Index),
			Content:     strings.TrimSpace(r.Content),
			SearchQuery: strings.TrimSpace(r.SearchQuery),
		}
		// A record with nothing to display or search for carries no reference.
		if item.Content == "" && item.SearchQuery == "" {
			continue
		}
		refs = append(refs, item)
	}
	return refs, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence that models
// occasionally emit even in JSON mode.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
