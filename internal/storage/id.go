package storage

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// IDShort is the short display length used in CLI output.
	IDShort = 8
	// IDMinLen is the minimum prefix length considered for ID matching.
	IDMinLen = 4
)

// IDRegexp matches a full session ID.
var IDRegexp = regexp.MustCompile(`^[0-9a-f]{32}$`)

// NewSessionID generates a random session ID.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ShortID truncates id for display.
func ShortID(id string) string {
	if len(id) > IDShort {
		return id[:IDShort]
	}
	return id
}
