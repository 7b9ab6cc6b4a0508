package matrix

import (
	"github.com/google/uuid"
)

// IDGenerator produces opaque ids for attributes, values and variants.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 ids.
//
// UUIDv7 embeds a millisecond timestamp in the most significant bits followed
// by random bits, so two ids minted in the same millisecond still differ.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
