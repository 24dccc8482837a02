// Package idgen generates short, URL-safe frame ids backed by nanoid. Frame
// ids double as HTTP ETags, so they only need to be unique per process.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultPrefix is prepended to ids that are not tied to a pane.
var DefaultPrefix = "fr-"

// Alphabet is the character set of the random part.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters, excluding the prefix.
var Length = 12

// Generate returns a new id with the default prefix.
func Generate() (string, error) {
	return GenerateWithPrefix(DefaultPrefix)
}

// Frame returns a new id for a frame of the named pane, e.g. "topology-3fKx...".
func Frame(pane string) (string, error) {
	if pane == "" {
		return Generate()
	}
	return GenerateWithPrefix(pane + "-")
}

// GenerateWithPrefix returns a new id with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
