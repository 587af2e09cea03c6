package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{-90, 270},
		{720, 0},
		{359.9999999999, 0},
		{-0.5, 359.5},
		{0.10000000000002274, 0.1},
		{270.1, 270.1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDegrees(tt.in), "%v", tt.in)
	}
}
