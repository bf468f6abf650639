// Package checksum computes content digests used for change detection and
// optimistic concurrency on deck sources.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether etag names the digest of data. Surrounding quotes,
// as sent in an If-Match header, are ignored.
func Matches(data []byte, etag string) bool {
	return strings.Trim(etag, `"`) == Sum(data)
}
