// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceItemQuery(t *testing.T) {
	tests := []struct {
		name string
		ref  ReferenceItem
		want string
	}{
		{"prepared query", ReferenceItem{Content: "Smith, J. (2020). Title A.", SearchQuery: "Smith Title A 2020"}, "Smith Title A 2020"},
		{"blank query falls back to content", ReferenceItem{Content: "Doe, A. Title B.", SearchQuery: " \t"}, "Doe, A. Title B."},
		{"missing query", ReferenceItem{Content: "Roe, B. Title C."}, "Roe, B. Title C."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.Query())
		})
	}
}

func TestSelectedReference(t *testing.T) {
	s := SessionState{References: []ReferenceItem{{Index: "[1]"}}, Selected: 0}
	ref, ok := s.SelectedReference()
	assert.True(t, ok)
	assert.Equal(t, "[1]", ref.Index)

	s.Selected = -1
	_, ok = s.SelectedReference()
	assert.False(t, ok)
}
