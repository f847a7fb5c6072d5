// Package id generates unique identifiers for entities and printed tag codes.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// publicCodeAlphabet is the restricted alphabet for printed tag codes.
// Easily-confused characters (0/O, 1/I/l, 5/S, 8/B) are excluded so a code
// read off a mug or a plant stake can be typed without ambiguity.
const publicCodeAlphabet = "234679ACDEFGHJKLMNPQRTUVWXYZ"

// PublicCodeLength is the number of characters in a printed tag code.
const PublicCodeLength = 8

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "tag-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	// Use default NanoID (21 characters, URL-safe alphabet)
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// PublicCode generates a short human-typeable tag code from the restricted
// alphabet. Uniqueness is not guaranteed here; callers must check the store
// and retry on collision.
func PublicCode() (string, error) {
	code, err := gonanoid.Generate(publicCodeAlphabet, PublicCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate public code: %w", err)
	}
	return code, nil
}
