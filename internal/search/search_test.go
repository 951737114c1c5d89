// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reference-assistant/internal/apperr"
	"github.com/pdiddy/reference-assistant/internal/gateway"
	"github.com/pdiddy/reference-assistant/pkg/types"
)

// --- mock grounder ---

type mockGrounder struct {
	resp   gateway.GroundedResponse
	err    error
	calls  int
	prompt string
}

func (m *mockGrounder) GenerateGrounded(_ context.Context, prompt string) (gateway.GroundedResponse, error) {
	m.calls++
	m.prompt = prompt
	return m.resp, m.err
}

func newTestService(g Grounder) *Service {
	return NewService(g, types.SearchConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSearchSmithScenario(t *testing.T) {
	g := &mockGrounder{resp: gateway.GroundedResponse{
		Text:    "This paper is about X",
		Sources: []gateway.WebSource{{URI: "https://a.com", Title: "A"}},
	}}

	out, err := newTestService(g).Search(context.Background(), "Smith Title A 2020")
	require.NoError(t, err)

	assert.Equal(t, "This paper is about X", out.Summary)
	assert.Equal(t, []types.GroundingSource{{URI: "https://a.com", Title: "A"}}, out.Sources)
	assert.Equal(t, 1, g.calls)
	assert.Contains(t, g.prompt, `"Smith Title A 2020"`)
	assert.Contains(t, g.prompt, "in English")
}

func TestSearchDedupesSources(t *testing.T) {
	g := &mockGrounder{resp: gateway.GroundedResponse{
		Text: "summary",
		Sources: []gateway.WebSource{
			{URI: "https://b.com", Title: "B"},
			{URI: "", Title: "no uri"},
			{URI: "https://a.com", Title: ""},
			{URI: "https://b.com", Title: "B again"},
			{URI: "  ", Title: "blank uri"},
			{URI: "https://a.com", Title: "A titled later"},
			{URI: "https://c.com", Title: "C"},
		},
	}}

	out, err := newTestService(g).Search(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, []types.GroundingSource{
		{URI: "https://b.com", Title: "B"},
		{URI: "https://a.com", Title: FallbackSourceTitle},
		{URI: "https://c.com", Title: "C"},
	}, out.Sources)

	seen := map[string]bool{}
	for _, s := range out.Sources {
		assert.False(t, seen[s.URI], "duplicate uri %s", s.URI)
		seen[s.URI] = true
	}
}

func TestSearchNoSourcesIsValid(t *testing.T) {
	out, err := newTestService(&mockGrounder{resp: gateway.GroundedResponse{Text: "only a summary"}}).
		Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "only a summary", out.Summary)
	assert.NotNil(t, out.Sources)
	assert.Empty(t, out.Sources)
}

func TestSearchMissingSummaryFallback(t *testing.T) {
	out, err := newTestService(&mockGrounder{}).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, NoSummary, out.Summary)
}

func TestSearchGatewayFailure(t *testing.T) {
	g := &mockGrounder{err: errors.New("503 overloaded")}
	_, err := newTestService(g).Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Equal(t, apperr.MsgSearchFailed, apperr.UserMessage(err, ""))
	assert.Equal(t, 1, g.calls, "no retry")
}

func TestSearchBlankQuery(t *testing.T) {
	g := &mockGrounder{}
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := newTestService(g).Search(context.Background(), q)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	}
	assert.Equal(t, 0, g.calls)
}

func TestSummaryLanguage(t *testing.T) {
	g := &mockGrounder{}
	svc := NewService(g, types.SearchConfig{SummaryLanguage: "Chinese"}, nil)
	_, err := svc.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Contains(t, g.prompt, "in Chinese")
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(types.SearchOutcome{
		Summary: "This paper is about X",
		Sources: []types.GroundingSource{{URI: "https://www.a.com/paper", Title: "A"}},
	}, &buf)

	out := buf.String()
	assert.Contains(t, out, "This paper is about X")
	assert.Contains(t, out, " 1. A (www.a.com)")
	assert.Contains(t, out, "https://www.a.com/paper")

	buf.Reset()
	FormatText(types.SearchOutcome{Summary: "s", Sources: []types.GroundingSource{}}, &buf)
	assert.Contains(t, buf.String(), "No direct links found")
}

func TestFormatTextLongTitle(t *testing.T) {
	title := "a" + strings.Repeat("深度学习在自然语言处理中的应用研究综述与展望", 4)
	var buf bytes.Buffer
	FormatText(types.SearchOutcome{
		Summary: "s",
		Sources: []types.GroundingSource{{URI: "https://cnki.net/x", Title: title}},
	}, &buf)

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	_, rest, ok := strings.Cut(out, " 1. ")
	require.True(t, ok)
	shown, _, ok := strings.Cut(rest, " (cnki.net)")
	require.True(t, ok)
	assert.Equal(t, 60, utf8.RuneCountInString(shown))
	assert.True(t, strings.HasSuffix(shown, "..."))
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	in := types.SearchOutcome{Summary: "s", Sources: []types.GroundingSource{{URI: "https://a.com", Title: "A"}}}
	require.NoError(t, FormatJSON(in, &buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "s", got["summary"])
	sources := got["sources"].([]any)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://a.com", sources[0].(map[string]any)["uri"])
}
