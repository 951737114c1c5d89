// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pdiddy/reference-assistant/pkg/types"
)

// FormatText writes an outcome as human-readable text to w.
func FormatText(out types.SearchOutcome, w io.Writer) {
	fmt.Fprintln(w, out.Summary)
	fmt.Fprintln(w)

	if len(out.Sources) == 0 {
		fmt.Fprintln(w, "No direct links found; try searching manually based on the summary.")
		return
	}

	fmt.Fprintln(w, "Sources:")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, s := range out.Sources {
		fmt.Fprintf(w, "%2d. %s (%s)\n    %s\n", i+1, truncate(s.Title, 60), hostname(s.URI), s.URI)
	}
}

// FormatJSON writes an outcome as indented JSON to w.
func FormatJSON(out types.SearchOutcome, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// hostname returns the host of uri, or uri itself when it does not parse.
func hostname(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return uri
	}
	return u.Hostname()
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
