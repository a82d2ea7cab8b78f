package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single word", "Commodore", "commodore"},
		{"multi word", "Amiga 500", "amiga-500"},
		{"already lowercase", "atari", "atari"},
		{"multiple spaces become multiple hyphens", "A  B", "a--b"},
		{"punctuation untouched", "O'Neill & Sons", "o'neill-&-sons"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestNormalizeSerialNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sn-0421 33", "SN042133"},
		{"SN042133", "SN042133"},
		{" c64.1982 ", "C641982"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeSerialNumber(tt.input))
	}
}

func TestApplyChain(t *testing.T) {
	result := ApplyChain("  Amiga 500  ", "trim", "slugify")
	assert.Equal(t, "amiga-500", result)
}

func TestApply_UnknownNormalizerPassesThrough(t *testing.T) {
	assert.Equal(t, "Amiga", Apply("Amiga", "nope"))
}
