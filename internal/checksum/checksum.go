// Package checksum fingerprints generated documents so that unchanged
// renders can be recognized without comparing whole documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

const shortLen = 12

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Document returns the digest of a rendered document.
func Document(doc string) string {
	return Sum([]byte(doc))
}

// Short abbreviates a digest for log lines.
func Short(sum string) string {
	if len(sum) <= shortLen {
		return sum
	}
	return sum[:shortLen]
}
