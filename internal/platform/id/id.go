// Package id generates opaque identifiers for domain records.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 26-character lowercase base32 identifier derived from a
// random UUIDv4. The encoding is unpadded so ids are fixed-length and safe
// in URLs and filenames while remaining decodable back to the UUID bytes.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(u[:])
	return strings.ToLower(encoded), nil
}
