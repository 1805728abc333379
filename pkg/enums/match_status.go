package enums

import "fmt"

// MatchStatus is the outcome of matching one reference against the catalog.
type MatchStatus string

const (
	MatchStatusOK               MatchStatus = "ok"
	MatchStatusNotFound         MatchStatus = "not_found"
	MatchStatusInsufficientData MatchStatus = "insufficient_data"
)

var validMatchStatuses = []MatchStatus{
	MatchStatusOK,
	MatchStatusNotFound,
	MatchStatusInsufficientData,
}

// String implements fmt.Stringer.
func (m MatchStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MatchStatus.
func (m MatchStatus) IsValid() bool {
	for _, candidate := range validMatchStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMatchStatus converts raw input into a MatchStatus.
func ParseMatchStatus(value string) (MatchStatus, error) {
	for _, candidate := range validMatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match status %q", value)
}
