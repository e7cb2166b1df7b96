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
	// Falls back to v4 if v7 is not available (for compatibility)
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

// Domain-specific identifier types
type (
	// SessionID identifies one browser session's selection state.
	SessionID ID
	// ConstituencyCode is the stable short identifier joining a tabular
	// record to its geographic polygon (e.g. ONS code "E14000530").
	ConstituencyCode string
	// MetricKey names one metric column in the loaded dataset.
	MetricKey string
	// DatasetID identifies a stored dataset.
	DatasetID ID
)

func (id SessionID) String() string       { return ID(id).String() }
func (c ConstituencyCode) String() string { return string(c) }
func (k MetricKey) String() string        { return string(k) }
func (id DatasetID) String() string       { return ID(id).String() }

// NewSessionID creates a fresh session identifier
func NewSessionID() SessionID {
	return SessionID(NewID())
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	return SessionID(s), nil
}

// ParseConstituencyCode parses a string into ConstituencyCode
func ParseConstituencyCode(s string) (ConstituencyCode, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("constituency code cannot be empty")
	}
	return ConstituencyCode(strings.TrimSpace(s)), nil
}

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	return DatasetID(s), nil
}

// ParseMetricKey parses a string into MetricKey
func ParseMetricKey(s string) (MetricKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("metric key cannot be empty")
	}
	return MetricKey(s), nil
}
