package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "single element",
			input:    "broker:9092",
			expected: []string{"broker:9092"},
		},
		{
			name:     "trims and drops empty entries",
			input:    " a:9092 , ,b:9092,",
			expected: []string{"a:9092", "b:9092"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    "b,a,b,c,a",
			expected: []string{"b", "a", "c"},
		},
		{
			name:     "only separators",
			input:    ", ,",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input, ","))
		})
	}
}
