// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractionPrompt accompanies the PDF. The index must echo the document's
// own labels so a user can match entries against the paper.
const extractionPrompt = `Please analyze the "References" or "Bibliography" section of this PDF. Extract all references listed, in the order they appear. Return them as a JSON array.

For each reference:
- index: the reference label exactly as printed in the document (e.g. "[1]", "1.", "[Smith20]"). Do not renumber.
- content: the full text of the reference citation.
- searchQuery: a cleaned string containing just the title and authors (and year if present), optimized for search engines.

If the document has no references section, return an empty array.`

// ReferenceSchema returns the JSON Schema for the extraction response. It is
// sent to the gateway as a response constraint and used locally to validate
// the answer.
func ReferenceSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"index": map[string]any{
					"type":        "string",
					"description": "The reference number or identifier (e.g., '[1]', '1.').",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "The full text of the reference citation.",
				},
				"searchQuery": map[string]any{
					"type":        "string",
					"description": "A cleaned string containing just the title and authors, optimized for search engines.",
				},
			},
			"required":         []any{"index", "content", "searchQuery"},
			"propertyOrdering": []any{"index", "content", "searchQuery"},
		},
	}
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// compiledReferenceSchema compiles ReferenceSchema once.
func compiledReferenceSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		b, err := json.Marshal(ReferenceSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("references.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("references.json")
	})
	return compiledSchema, compileErr
}

// validateReferences checks data against the reference schema.
func validateReferences(data []byte) error {
	schema, err := compiledReferenceSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
