package enums

import (
	"fmt"
	"strings"
)

// MatchMode selects which gate set is active. The zero value behaves as strict.
type MatchMode string

const (
	MatchModeStrict  MatchMode = "strict"
	MatchModeSimilar MatchMode = "similar"
)

var validMatchModes = []MatchMode{
	MatchModeStrict,
	MatchModeSimilar,
}

// String implements fmt.Stringer.
func (m MatchMode) String() string {
	if m == "" {
		return string(MatchModeStrict)
	}
	return string(m)
}

// IsValid reports whether the value is a known MatchMode.
func (m MatchMode) IsValid() bool {
	for _, candidate := range validMatchModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsSimilar reports whether the relaxed gate set was explicitly requested.
func (m MatchMode) IsSimilar() bool {
	return m == MatchModeSimilar
}

// ParseMatchMode converts raw input into a MatchMode; empty input yields strict.
func ParseMatchMode(value string) (MatchMode, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return MatchModeStrict, nil
	}
	for _, candidate := range validMatchModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match mode %q", value)
}
