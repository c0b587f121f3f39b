package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Equal(t, "e3b0c44298fc", ShortHash(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	// "é" is two bytes; a cut inside it backs off to the rune start
	assert.Equal(t, "ab...", Truncate("abé", 3))
}
