package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEquivalent(t *testing.T) {
	tests := []struct {
		name      string
		submitted string
		canonical string
		want      bool
	}{
		{"exact match", "2x", "2x", true},
		{"whitespace ignored", "3x^2 + 4x - 5", "3x^2+4x-5", true},
		{"case ignored", "2X", "2x", true},
		{"left right stripped", `\left(x+1\right)`, "(x+1)", true},
		{"cdot rewritten", `2\cdot x`, "2*x", true},
		{"bare value inside equation", "3", "x = 3", true},
		{"equation around value", "x = 3", "3", true},
		{"same numbers different dressing", `h = 20 \text{ m}`, "20 m", true},
		{"different numbers", "7", "8", false},
		{"different expressions", "2x+1", "3x-4", false},
		{"no numbers no containment", "abc", "xyz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEquivalent(tt.submitted, tt.canonical))
		})
	}
}

func TestExtractNumbers(t *testing.T) {
	assert.Equal(t, []float64{3, 2, 4, -5}, extractNumbers("3x^2+4x-5"))
	assert.Equal(t, []float64{0.5}, extractNumbers("x=0.5"))
	assert.Empty(t, extractNumbers("abc"))
}
