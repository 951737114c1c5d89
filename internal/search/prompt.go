// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"text/template"
)

// searchPromptTmpl asks the gateway to find one academic work and describe it.
var searchPromptTmpl = template.Must(template.New("search").Parse(`Search for this academic paper: "{{.Query}}".
1. Provide a concise summary of what this paper is about (in {{.Language}}).
2. If found, verify the title and authors.
3. Focus on finding the actual content/abstract.`))

// renderPrompt executes the search prompt template.
func renderPrompt(query, language string) (string, error) {
	var buf bytes.Buffer
	err := searchPromptTmpl.Execute(&buf, struct {
		Query    string
		Language string
	}{Query: query, Language: language})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
