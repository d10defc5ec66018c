// Package id generates compact random identifiers.
//
// Identifiers are UUIDv4 bytes encoded as lowercase unpadded base32, giving a
// 26-character string safe for logs and URL paths.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new 26-character random identifier.
func NewID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// UUIDv4 version and variant bits.
	raw[6] = (raw[6] & 0x0F) | 0x40
	raw[8] = (raw[8] & 0x3F) | 0x80

	return strings.ToLower(encoding.EncodeToString(raw[:])), nil
}
