package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_Format(t *testing.T) {
	got := Generate()

	assert.True(t, strings.HasPrefix(got, "gen-"))
	parts := strings.Split(got, "-")
	assert.Len(t, parts, 3)
	assert.Len(t, parts[2], 8, "random suffix is 4 hex-encoded bytes")
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := Generate()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
