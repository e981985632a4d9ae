package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// entryName maps an arbitrary identifier to a fixed-length, path-safe name
// for backends that address entries by path.
func entryName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
