package validation

import (
	"strings"

	"github.com/google/uuid"
)

/* ParseUUID parses a path or query identifier, reporting failures as a validation error */
func ParseUUID(s, fieldName string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, NewError(fieldName, "is required")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, NewError(fieldName, "has invalid UUID format")
	}
	return id, nil
}
