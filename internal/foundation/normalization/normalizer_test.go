package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

const (
	red   color = "red"
	green color = "green"
)

func newColors() *Normalizer[color] {
	return NewNormalizer("color", map[string]color{
		"red":   red,
		"GREEN": green,
	}, red)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newColors()

	tests := []struct {
		input    string
		expected color
	}{
		{"red", red},
		{"  Green ", green},
		{"blue", red},
		{"", red},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, n.Normalize(tt.input), "input %q", tt.input)
	}
}

func TestNormalizer_Parse(t *testing.T) {
	n := newColors()

	v, err := n.Parse("GREEN")
	require.NoError(t, err)
	assert.Equal(t, green, v)

	v, err = n.Parse(" ")
	require.NoError(t, err)
	assert.Equal(t, red, v)

	_, err = n.Parse("blue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid color "blue"`)
	assert.Contains(t, err.Error(), "green, red")
}

func TestNormalizer_ValidAndKeys(t *testing.T) {
	n := newColors()
	assert.True(t, n.Valid(green))
	assert.False(t, n.Valid(color("blue")))

	keys := n.Keys()
	assert.Equal(t, []string{"green", "red"}, keys)
	keys[0] = "mutated"
	assert.Equal(t, []string{"green", "red"}, n.Keys())
}
