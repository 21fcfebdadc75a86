package uid

import (
	"strings"

	"github.com/google/uuid"
)

// UUID generates RFC 4122 UUID strings.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString() // fallback: uuidV4
	}
	return id.String()
}

// GUID generates time-based identifiers formatted as a 32-char upper-case hex
// string without hyphens, the shape SAP backends accept as a GUID.
type GUID struct{}

// NewGUID returns a GUID generator.
func NewGUID() *GUID {
	return &GUID{}
}

// Generate returns a new version 1 UUID, upper-cased and stripped of hyphens.
func (g *GUID) Generate() string {
	id, err := uuid.NewUUID()
	if err != nil {
		id = uuid.New() // fallback: uuidV4
	}
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}
