package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"tag", "tag"},
		{"user", "user"},
		{"transfer request", "treq"},
		{"transfer", "xfer"},
		{"notification", "notif"},
		{"session", "sess"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Generate(tt.prefix)
			require.NoError(t, err)

			// Should start with prefix followed by hyphen
			assert.True(t, strings.HasPrefix(id, tt.prefix+"-"))

			// NanoID default is 21 characters
			expectedLen := len(tt.prefix) + 1 + 21
			assert.Equal(t, expectedLen, len(id), "ID: %s", id)

			// Check all characters are URL-safe (NanoID uses: A-Za-z0-9_-)
			nanoidPart := strings.TrimPrefix(id, tt.prefix+"-")
			for _, char := range nanoidPart {
				assert.True(t,
					(char >= 'A' && char <= 'Z') ||
						(char >= 'a' && char <= 'z') ||
						(char >= '0' && char <= '9') ||
						char == '_' || char == '-',
					"Character %c should be URL-safe", char)
			}
		})
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("test")

	assert.True(t, strings.HasPrefix(id, "test-"))
	assert.Equal(t, len("test")+1+21, len(id))
}

func TestPublicCode_Alphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := PublicCode()
		require.NoError(t, err)
		assert.Len(t, code, PublicCodeLength)

		for _, char := range code {
			assert.Contains(t, publicCodeAlphabet, string(char),
				"character %c must come from the restricted alphabet", char)
		}

		// The confusable characters must never appear.
		for _, banned := range "0O1Il5S8B" {
			assert.NotContains(t, code, string(banned))
		}
	}
}

func TestPublicCode_Uniqueness(t *testing.T) {
	codes := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		code, err := PublicCode()
		require.NoError(t, err)
		codes[code] = true
	}

	// 28^8 possible codes; 1000 draws colliding would indicate broken randomness.
	assert.Len(t, codes, count)
}
