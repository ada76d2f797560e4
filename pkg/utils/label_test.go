package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			existing: Label{},
			incoming: Label{Value: "content", Source: "recall"},
			want:     Label{Value: "content", Source: "recall"},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "content", Source: "recall"},
			incoming: Label{},
			want:     Label{Value: "content", Source: "recall"},
		},
		{
			name:     "values and sources accumulate",
			existing: Label{Value: "content", Source: "recall"},
			incoming: Label{Value: "cf", Source: "merge"},
			want:     Label{Value: "content|cf", Source: "recall,merge"},
		},
		{
			name:     "missing source on one side",
			existing: Label{Value: "a"},
			incoming: Label{Value: "b", Source: "rank"},
			want:     Label{Value: "a|b", Source: "rank"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}

func TestLabelValues(t *testing.T) {
	assert.Nil(t, Label{}.Values())
	assert.Equal(t, []string{"content", "cf"}, Label{Value: "content|cf"}.Values())
}
