package validation

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMissingID = errors.New("id is required")
	ErrInvalidID = errors.New("id is malformed")
)

// ValidateID checks a client supplied record id. Ids are UUIDs issued by
// the server, so anything else cannot exist.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
