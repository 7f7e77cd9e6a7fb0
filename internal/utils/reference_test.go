package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReferenceCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^TRF-\d{6}$`)
	for i := 0; i < 100; i++ {
		code, err := NewReferenceCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code, "codes are the prefix plus exactly six digits")
	}
}

func TestNewReferenceCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewReferenceCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// collisions over 50 draws from a million values are possible but
	// astronomically unlikely; a constant generator would fail here
	assert.Greater(t, len(seen), 1)
}
