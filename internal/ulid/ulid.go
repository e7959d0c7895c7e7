// Package ulid provides prefixed ULID generation for entity identifiers.
//
// ULIDs are lexicographically sortable by creation time, which keeps
// database indexes on id columns naturally ordered, and the short prefix
// makes an identifier's entity type readable in logs and API responses
// (e.g. "rev-01AN4Z07BY79KA1307SR9X4MV3").
package ulid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for the different entity types in the system.
const (
	// PrefixReview is used for review identifiers
	PrefixReview = "rev"

	// PrefixSuggestion is used for suggestion identifiers
	PrefixSuggestion = "sug"

	// PrefixUser is used for user identifiers
	PrefixUser = "usr"

	// PrefixRequest is used for request identifiers
	PrefixRequest = "req"

	// PrefixSeparator separates the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Generate creates a new ULID string with the current timestamp.
func Generate() string {
	return NewWithTime(time.Now())
}

// GenerateWithPrefix creates a new ULID string with the current timestamp
// and the given prefix.
func GenerateWithPrefix(prefix string) string {
	return prefix + PrefixSeparator + NewWithTime(time.Now())
}

// NewWithTime creates a new ULID string with a specific timestamp.
func NewWithTime(t time.Time) string {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyLock.Unlock()
	return id.String()
}

// Validate checks whether a string is a valid, optionally prefixed ULID.
func Validate(id string) bool {
	raw := id
	if idx := strings.Index(id, PrefixSeparator); idx >= 0 {
		raw = id[idx+1:]
	}
	_, err := ulid.Parse(raw)
	return err == nil
}

// Time returns the timestamp component of an optionally prefixed ULID.
func Time(id string) (time.Time, error) {
	raw := id
	if idx := strings.Index(id, PrefixSeparator); idx >= 0 {
		raw = id[idx+1:]
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// ReviewID generates a new ULID with the review prefix
func ReviewID() string {
	return GenerateWithPrefix(PrefixReview)
}

// SuggestionID generates a new ULID with the suggestion prefix
func SuggestionID() string {
	return GenerateWithPrefix(PrefixSuggestion)
}

// UserID generates a new ULID with the user prefix
func UserID() string {
	return GenerateWithPrefix(PrefixUser)
}

// RequestID generates a new ULID with the request prefix
func RequestID() string {
	return GenerateWithPrefix(PrefixRequest)
}
