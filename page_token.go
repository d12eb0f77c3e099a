package client

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const pageTokenBytes = 30

// GeneratePageToken returns a fresh random nonce for the page_token
// parameter of the paginated endpoints: 30 random bytes, hex-encoded.
//
// The value is not derived from any earlier response. The API accepts it,
// but whether it expects the cursor from a previous page to be echoed back
// is unknown.
func GeneratePageToken() (string, error) {
	buf := make([]byte, pageTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate page token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
