// Package fingerprint computes printable digests of aggregated manifest
// content.
package fingerprint

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"

	"github.com/wwt-image-collection/hashgen/internal/domain"
)

// Algorithm names a digest function
type Algorithm string

const (
	// MD5 matches the fingerprints already stored in hash.md5 files
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// Default is the algorithm used when none is configured
const Default = MD5

// ParseAlgorithm parses an algorithm name, case-insensitively
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case MD5, SHA256:
		return a, nil
	case "":
		return Default, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, name)
	}
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, string(a))
	}
}

// Compute digests the UTF-8 bytes of content and returns the digest in
// padded standard base64
func Compute(content string, algo Algorithm) (string, error) {
	h, err := algo.newHash()
	if err != nil {
		return "", err
	}
	h.Write([]byte(content))
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
