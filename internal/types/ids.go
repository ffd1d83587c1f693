package types

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationID identifies one batch evaluation call in the history store.
type EvaluationID string

// NewEvaluationID generates a UUIDv7 evaluation identifier.
// Time-ordered IDs keep history inserts clustered and listings sortable.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewEvaluationID() EvaluationID {
	return EvaluationID(uuid.Must(uuid.NewV7()).String())
}

// ParseEvaluationID validates and converts a string to EvaluationID.
func ParseEvaluationID(s string) (EvaluationID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return EvaluationID(s), nil
}

// EvaluationIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func EvaluationIDTime(id EvaluationID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
