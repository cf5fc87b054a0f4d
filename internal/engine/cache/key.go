package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// identifierSeparator joins the parts of a composite identifier.
// YouTube video ids never contain it.
const identifierSeparator = "|"

// GenerateKey derives the storage key for an identifier within a category.
// The category is part of the digest input, so the same identifier in two
// categories never shares a key.
func GenerateKey(category Category, identifier string) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(identifier))
	return hex.EncodeToString(h.Sum(nil))
}

// JoinIdentifier builds a composite identifier such as "dQw4w9WgXcQ|100".
// Order matters: JoinIdentifier("a", "b") != JoinIdentifier("b", "a").
func JoinIdentifier(parts ...string) string {
	return strings.Join(parts, identifierSeparator)
}

// IdentifierWithLimit is JoinIdentifier(id, strconv.Itoa(limit)).
func IdentifierWithLimit(id string, limit int) string {
	return JoinIdentifier(id, strconv.Itoa(limit))
}
