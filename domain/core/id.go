package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID      ID
	LocationID ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id LocationID) String() string { return ID(id).String() }

// NewRunID returns a fresh time-ordered run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseLocationID parses a location code such as "ZEG" or "ROU09".
// Codes are case-insensitive and stored upper-case.
func ParseLocationID(s string) (LocationID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("location ID cannot be empty")
	}
	return LocationID(strings.ToUpper(s)), nil
}
