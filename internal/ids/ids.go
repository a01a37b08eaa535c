// Package ids centralizes identifier generation so every component mints
// pack and session ids (and content checksums) the same way, grounded on the teacher's
// use of github.com/google/uuid for session and trace identifiers.
package ids

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewPackID mints a fresh ContextPack.packId.
func NewPackID() string {
	return uuid.NewString()
}

// NewSessionID mints a fresh Session.sessionId.
func NewSessionID() string {
	return uuid.NewString()
}

// ContentHash returns the SHA-256 hex digest of content, used as the
// Content Cache key (spec.md §4.A) — keyed on content, not path.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// InternedChecksum truncates a full SHA-256 hex checksum to the 16 hex
// chars spec.md §3 specifies for FileEntity.checksum interning.
func InternedChecksum(fullHex string) string {
	if len(fullHex) <= 16 {
		return fullHex
	}
	return fullHex[:16]
}

// FileChecksum computes the interned checksum directly from file content.
func FileChecksum(content []byte) string {
	return InternedChecksum(ContentHash(content))
}
