package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		expected string
	}{
		{name: "plain term", term: "refund", expected: "refund"},
		{name: "percent", term: "100%", expected: `100\%`},
		{name: "underscore", term: "unit_price", expected: `unit\_price`},
		{name: "backslash", term: `C:\docs`, expected: `C:\\docs`},
		{name: "mixed", term: `_50%\`, expected: `\_50\%\\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeLike(tt.term))
		})
	}
}
