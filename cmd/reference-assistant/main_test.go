// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/secrets"
	"github.com/pdiddy/reference-assistant/internal/session"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	v := viper.New()
	setDefaults(v, types.DefaultConfig())

	got, err := loadConfig(v, secrets.Set{})
	require.NoError(t, err)

	want := types.DefaultConfig()
	assert.Equal(t, want, got)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference-assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  model: gemini-test
  timeout: 30s
  requests_per_second: 0.5
server:
  addr: ":9000"
session:
  call_timeout: 45s
search:
  summary_language: German
log_level: debug
`), 0o644))

	t.Setenv("REFERENCE_ASSISTANT_SERVER_ADDR", ":9100")
	t.Setenv(apiKeyEnvVar, "")

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, types.DefaultConfig())
	require.NoError(t, v.ReadInConfig())

	got, err := loadConfig(v, secrets.Set{})
	require.NoError(t, err)

	assert.Equal(t, "gemini-test", got.Gateway.Model)
	assert.Equal(t, 30*time.Second, got.Gateway.Timeout)
	assert.Equal(t, 0.5, got.Gateway.RequestsPerSecond)
	assert.Equal(t, types.DefaultGatewayBaseURL, got.Gateway.BaseURL)
	assert.Equal(t, ":9100", got.Server.Addr, "environment overrides file")
	assert.Equal(t, 45*time.Second, got.Session.CallTimeout)
	assert.Equal(t, "German", got.Search.SummaryLanguage)
	assert.Equal(t, "debug", got.LogLevel)
}

func TestLoadConfigAPIKeyPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		explicit string
		secrets secrets.Set
		env     string
		want    string
	}{
		{"env only", "", secrets.Set{}, "env-key", "env-key"},
		{"secret beats env", "", secrets.Set{secrets.GeminiAPIKey: "secret-key"}, "env-key", "secret-key"},
		{"config beats secret", "config-key", secrets.Set{secrets.GeminiAPIKey: "secret-key"}, "env-key", "config-key"},
		{"none", "", secrets.Set{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(apiKeyEnvVar, tt.env)
			v := viper.New()
			setDefaults(v, types.DefaultConfig())
			if tt.explicit != "" {
				v.Set("gateway.api_key", tt.explicit)
			}

			got, err := loadConfig(v, tt.secrets)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Gateway.APIKey)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=v")

	buf.Reset()
	newLogger(&buf, "bogus").Info("fallback")
	assert.Contains(t, buf.String(), "fallback")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, types.PDFContentType, contentType("paper.bin", []byte("%PDF-1.7\n...")))
	assert.Equal(t, "text/plain", contentType("notes.txt", []byte("hello world")))
	assert.Equal(t, types.PDFContentType, contentType("scan.pdf", []byte{0x00, 0x01, 0x02}))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{line: "", want: command{kind: cmdNone}},
		{line: "  quit ", want: command{kind: cmdQuit}},
		{line: "EXIT", want: command{kind: cmdQuit}},
		{line: "help", want: command{kind: cmdHelp}},
		{line: "ls", want: command{kind: cmdList}},
		{line: "reset", want: command{kind: cmdReset}},
		{line: "open paper.pdf", want: command{kind: cmdOpen, arg: "paper.pdf"}},
		{line: "open", wantErr: true},
		{line: "3", want: command{kind: cmdSelect, position: 2}},
		{line: "0", wantErr: true},
		{line: "3 4", wantErr: true},
		{line: "/q attention is all you need", want: command{kind: cmdQuery, arg: "attention is all you need"}},
		{line: "/q", want: command{kind: cmdQuery}},
		{line: "/quit", wantErr: true},
		{line: "frobnicate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatReferences(t *testing.T) {
	refs := []types.ReferenceItem{
		{Index: "[1]", Content: "Smith, J. (2020). Title A.", SearchQuery: "Smith Title A 2020"},
	}

	var buf bytes.Buffer
	require.NoError(t, formatReferences(&buf, refs, 0, false))
	assert.Contains(t, buf.String(), "Smith, J. (2020). Title A.")
	assert.Contains(t, buf.String(), "\n1 references\n")

	buf.Reset()
	require.NoError(t, formatReferences(&buf, refs, 14, false))
	assert.Contains(t, buf.String(), "1 references (14 pages)")

	buf.Reset()
	require.NoError(t, formatReferences(&buf, refs, 14, true))
	assert.Contains(t, buf.String(), `"searchQuery": "Smith Title A 2020"`)

	buf.Reset()
	require.NoError(t, formatReferences(&buf, nil, 0, false))
	assert.Equal(t, "No references found.\n", buf.String())
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "a b", clip("a\n  b", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}

// --- browse ---

type fakeExtractor struct {
	refs []types.ReferenceItem
	err  error
}

func (f fakeExtractor) Extract(context.Context, []byte) ([]types.ReferenceItem, error) {
	return f.refs, f.err
}

type fakeSearcher struct{}

func (fakeSearcher) Search(_ context.Context, q string) (types.SearchOutcome, error) {
	if q == "fail" {
		return types.SearchOutcome{}, apperr.Upstream(apperr.MsgSearchFailed, errors.New("boom"))
	}
	return types.SearchOutcome{
		Summary: "summary of " + q,
		Sources: []types.GroundingSource{{URI: "https://example.org/paper", Title: "Paper"}},
	}, nil
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF\n"), 0o644))
	return path
}

func runBrowser(t *testing.T, e session.Extractor, file, input string) string {
	t.Helper()
	ctrl := session.New(e, fakeSearcher{}, types.SessionConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var out bytes.Buffer
	b := newBrowser(ctrl, strings.NewReader(input), &out)
	if file != "" {
		b.open(context.Background(), file)
	}
	require.NoError(t, b.run(context.Background()))
	return out.String()
}

func TestBrowseSession(t *testing.T) {
	e := fakeExtractor{refs: []types.ReferenceItem{
		{Index: "[1]", Content: "Smith, J. (2020). Title A.", SearchQuery: "Smith Title A 2020"},
	}}
	out := runBrowser(t, e, writePDF(t), "1\n/q fail\n/q   \n2\nquit\n")

	assert.Contains(t, out, "Analyzing PDF...")
	assert.Contains(t, out, "  1. [1]    Smith, J. (2020). Title A.")
	assert.Contains(t, out, "Searching...")
	assert.Contains(t, out, "summary of Smith Title A 2020")
	assert.Contains(t, out, "https://example.org/paper")
	assert.Contains(t, out, "Search failed: "+apperr.MsgSearchFailed)
	assert.Contains(t, out, "No reference with that number.")
}

func TestBrowseShowsPageCount(t *testing.T) {
	fixture := filepath.Join("..", "..", "internal", "extract", "testdata", "two-pages.pdf")
	e := fakeExtractor{refs: []types.ReferenceItem{{Index: "[1]", Content: "Doe, A. Title B."}}}
	out := runBrowser(t, e, fixture, "quit\n")

	assert.Contains(t, out, "Analyzing PDF (2 pages)...")
	assert.Contains(t, out, "  1. [1]    Doe, A. Title B.")
}

func TestPageCount(t *testing.T) {
	doc, err := readDocument(filepath.Join("..", "..", "internal", "extract", "testdata", "two-pages.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, pageCount(doc))

	doc.Data = []byte("%PDF-1.4\n%%EOF\n")
	assert.Zero(t, pageCount(doc))
}

func TestBrowseResetAndReopen(t *testing.T) {
	e := fakeExtractor{refs: []types.ReferenceItem{{Index: "1.", Content: "Doe, A. Title B."}}}
	path := writePDF(t)
	out := runBrowser(t, e, path, "open "+path+"\nreset\n1\nopen "+path+"\n1\n")

	assert.Contains(t, out, "A document is already loaded; reset first.")
	assert.Contains(t, out, "Session reset.")
	assert.Contains(t, out, "No references loaded;")
	assert.Contains(t, out, "summary of Doe, A. Title B.")
}

func TestBrowseExtractionFailure(t *testing.T) {
	e := fakeExtractor{err: apperr.Upstream(apperr.MsgExtractFailed, errors.New("bad json"))}
	out := runBrowser(t, e, writePDF(t), "list\n")

	assert.Contains(t, out, "Error: "+apperr.MsgExtractFailed)
	assert.Contains(t, out, "No document loaded.")
}

func TestBrowseRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	out := runBrowser(t, fakeExtractor{}, path, "")
	assert.Contains(t, out, "Error: "+session.MsgNotPDF)
}

func TestBrowseEmptyReferenceList(t *testing.T) {
	out := runBrowser(t, fakeExtractor{}, writePDF(t), "/q manual lookup\n")
	assert.Contains(t, out, "No references found in this document.")
	assert.Contains(t, out, "summary of manual lookup")
}
