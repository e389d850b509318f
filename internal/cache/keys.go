package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/wwt-image-collection/hashgen/internal/utils"
)

// GenerateKey generates a cache key from a URL
// The key is a SHA256 hash of the normalized URL
func GenerateKey(rawURL string) string {
	normalized, err := utils.NormalizeURL(rawURL)
	if err != nil {
		normalized = rawURL
	}
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}
