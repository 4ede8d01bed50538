package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// APIKeyLookup returns the indexed digest of a plain operator API key
func APIKeyLookup(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
