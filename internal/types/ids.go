package types

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// FormID represents a UUIDv7 form identifier.
type FormID string

// VariableIDPattern is the shape every computed variable id must have.
var VariableIDPattern = regexp.MustCompile(`^cv_[A-Za-z0-9_]+$`)

// NewFormID generates a UUIDv7 form identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewFormID() FormID {
	return FormID(uuid.Must(uuid.NewV7()).String())
}

// NewRequestID generates a UUIDv7 identifier used to correlate log lines of one request.
func NewRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseFormID validates and converts a string to FormID.
func ParseFormID(s string) (FormID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrInvalidFormID
	}
	return FormID(s), nil
}

// FormIDTime extracts the creation time embedded in a UUIDv7 form id.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func FormIDTime(id FormID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}

// IsVariableID reports whether id has the computed variable shape (cv_*).
func IsVariableID(id string) bool {
	return VariableIDPattern.MatchString(id)
}
