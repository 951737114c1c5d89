// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the reference assistant:
// reference records extracted from a document, grounded search results, and
// the session state the controller exposes to presentation code.
package types

import "strings"

// ReferenceItem is one bibliography entry extracted from a document.
type ReferenceItem struct {
	// Index is the citation label as printed in the document (e.g. "[1]", "1.").
	Index string `json:"index" yaml:"index"`

	// Content is the verbatim citation text.
	Content string `json:"content" yaml:"content"`

	// SearchQuery is a cleaned title/author string meant for lookup.
	SearchQuery string `json:"searchQuery" yaml:"search_query"`
}

// Query returns the string a search for this reference should use: the
// prepared search query when present, otherwise the raw citation text.
func (r ReferenceItem) Query() string {
	if strings.TrimSpace(r.SearchQuery) != "" {
		return r.SearchQuery
	}
	return r.Content
}

// GroundingSource is one web link the gateway cites as evidence for a summary.
type GroundingSource struct {
	URI   string `json:"uri" yaml:"uri"`
	Title string `json:"title" yaml:"title"`
}

// SearchOutcome is the terminal payload of a successful search.
type SearchOutcome struct {
	Summary string            `json:"summary" yaml:"summary"`
	Sources []GroundingSource `json:"sources" yaml:"sources"`
}

// SearchResult is the live result of the most recent search. Loading is a
// transient placeholder; a terminal result carries either an outcome or an
// error, never both.
type SearchResult struct {
	Summary string            `json:"summary"`
	Sources []GroundingSource `json:"sources"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
}

// LoadingResult returns the placeholder shown while a search is in flight.
func LoadingResult() SearchResult {
	return SearchResult{Loading: true, Sources: []GroundingSource{}}
}

// ResultFromOutcome converts a successful outcome into a terminal result.
func ResultFromOutcome(o SearchOutcome) SearchResult {
	sources := o.Sources
	if sources == nil {
		sources = []GroundingSource{}
	}
	return SearchResult{Summary: o.Summary, Sources: sources}
}

// FailedResult returns a terminal result carrying only an error message.
func FailedResult(msg string) SearchResult {
	return SearchResult{Sources: []GroundingSource{}, Error: msg}
}
