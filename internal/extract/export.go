// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reference-assistant/pkg/types"
)

// ReferenceList is the on-disk form of an extraction.
type ReferenceList struct {
	Source     string                `yaml:"source,omitempty"`
	Pages      int                   `yaml:"pages,omitempty"`
	References []types.ReferenceItem `yaml:"references"`
}

// WriteYAML marshals list to a YAML file at path.
func WriteYAML(path string, list ReferenceList) error {
	data, err := yaml.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling references: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
