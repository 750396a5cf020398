package device

import (
	"crypto/rand"
	"fmt"
)

const (
	trackingPrefix = "TS-"
	trackingLength = 6
	// Uppercase letters and digits: 36^6 codes, so collisions are rare
	// enough that the insert-retry loop terminates in practice.
	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// newTrackingCode produces a candidate public tracking code. Uniqueness is
// not checked here; the devices table's unique constraint rejects
// collisions and the caller regenerates.
func newTrackingCode() (string, error) {
	buf := make([]byte, trackingLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return trackingPrefix + string(buf), nil
}
