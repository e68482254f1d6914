package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashDomainSeparation(t *testing.T) {
	data := []byte(`{"kind":"publisher"}`)

	plain := sha256.Sum256(data)
	h := ContentHash(data)

	assert.Len(t, string(h), 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, hex.EncodeToString(plain[:]), string(h), "domain prefix must change the digest")

	manual := sha256.Sum256(append([]byte(DomainRecord+"\x00"), data...))
	assert.Equal(t, hex.EncodeToString(manual[:]), string(h))
}

func TestHashOfDeterministic(t *testing.T) {
	a := map[string]any{"b": "2", "a": "1"}
	b := map[string]any{"a": "1", "b": "2"}

	h1, bytes1, err := HashOf(a)
	require.NoError(t, err)
	h2, bytes2, err := HashOf(b)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "key order must not affect the hash")
	assert.Equal(t, bytes1, bytes2)
	assert.Equal(t, ContentHash(bytes1), h1)
}

func TestHashOfChangesWithContent(t *testing.T) {
	h1, _, err := HashOf(map[string]any{"name": "one"})
	require.NoError(t, err)
	h2, _, err := HashOf(map[string]any{"name": "two"})
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestParseHash(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	h, err := ParseHash(valid)
	require.NoError(t, err)
	assert.Equal(t, Hash(valid), h)
	assert.Equal(t, valid[:12], h.Short())

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "abc"},
		{"uppercase", strings.Repeat("AB", 32)},
		{"non hex", strings.Repeat("zz", 32)},
		{"too long", valid + "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHash(tt.input)
			assert.Error(t, err)
		})
	}
}
