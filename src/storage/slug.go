package storage

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// slugSeedLength bounds how much of the seed question feeds the slug.
const slugSeedLength = 20

// NewSessionID derives a human-readable session id from the first
// question: a bounded slug of the question plus an 8-hex random suffix
// for uniqueness, e.g. "what-is-an-f-1-visa-3f9a1c2e".
func NewSessionID(seedQuestion string) string {
	seed := seedQuestion
	if len(seed) > slugSeedLength {
		seed = seed[:slugSeedLength]
	}

	s := slug.Make(seed)
	if s == "" {
		s = "session"
	}

	u := uuid.New()
	return fmt.Sprintf("%s-%s", s, hex.EncodeToString(u[:4]))
}
