// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import "strings"

// geminiSchemaKeys lists the JSON Schema keywords the gateway accepts in a
// response schema. Everything else (minLength, pattern, additionalProperties)
// is kept for local validation only.
var geminiSchemaKeys = map[string]bool{
	"type":             true,
	"description":      true,
	"properties":       true,
	"required":         true,
	"items":            true,
	"enum":             true,
	"nullable":         true,
	"format":           true,
	"propertyOrdering": true,
	"minItems":         true,
	"maxItems":         true,
}

// ToGeminiSchema translates a JSON Schema map into the gateway's schema
// dialect: type names are upper-cased and unsupported keywords dropped.
// A nil schema yields nil.
func ToGeminiSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if !geminiSchemaKeys[k] {
			continue
		}
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case "items":
			if m, ok := v.(map[string]any); ok {
				out[k] = ToGeminiSchema(m)
				continue
			}
			out[k] = v
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			converted := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					converted[name] = ToGeminiSchema(pm)
				} else {
					converted[name] = p
				}
			}
			out[k] = converted
		default:
			out[k] = v
		}
	}
	return out
}
