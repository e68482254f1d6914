package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for an algorithm migration.
const (
	DomainRecord = "appstore/record/v1"
)

// Hash is the lowercase hex SHA-256 of a record's canonical bytes.
// An EntityId is the Hash of the entity's creation record.
type Hash string

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the record hash of already-canonical bytes.
func ContentHash(data []byte) Hash {
	return Hash(hashWithDomain(DomainRecord, data))
}

// HashOf canonicalizes v and returns both its hash and the canonical bytes.
func HashOf(v any) (Hash, []byte, error) {
	data, err := Canonicalize(v)
	if err != nil {
		return "", nil, fmt.Errorf("hash of: %w", err)
	}
	return ContentHash(data), data, nil
}

// ParseHash validates s as a Hash: exactly 64 lowercase hex characters.
func ParseHash(s string) (Hash, error) {
	if len(s) != sha256.Size*2 {
		return "", fmt.Errorf("hash %q: want %d hex characters, got %d", s, sha256.Size*2, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("hash %q: invalid character %q at %d", s, c, i)
		}
	}
	return Hash(s), nil
}

// String returns the hex form.
func (h Hash) String() string { return string(h) }

// Short returns the first 12 characters, for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsZero reports whether h is the empty hash.
func (h Hash) IsZero() bool { return h == "" }
