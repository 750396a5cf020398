package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := newTrackingCode()
		require.NoError(t, err)

		assert.Len(t, code, len(trackingPrefix)+trackingLength)
		assert.True(t, strings.HasPrefix(code, trackingPrefix))
		for _, ch := range code[len(trackingPrefix):] {
			assert.Contains(t, trackingAlphabet, string(ch))
		}
	}
}

func TestNewTrackingCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := newTrackingCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// 36^6 codes; 100 draws colliding would indicate a broken generator.
	assert.Greater(t, len(seen), 90)
}
