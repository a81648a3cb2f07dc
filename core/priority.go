package core

import (
	"fmt"
	"strings"
)

// Priority is the scheduling priority of a thread.
// Levels are ordered: PriorityLowest < PriorityLow < PriorityNormal < PriorityHigh < PriorityHighest.
// The zero value is PriorityNormal.
type Priority int

const (
	// PriorityLowest: The lowest thread priority
	PriorityLowest Priority = iota - 2

	// PriorityLow: A lower than normal thread priority
	PriorityLow

	// PriorityNormal: Default priority
	PriorityNormal

	// PriorityHigh: A higher than normal thread priority
	PriorityHigh

	// PriorityHighest: The highest thread priority.
	// Most platforms only honor it when the process holds scheduling privileges.
	PriorityHighest
)

// priorityLevels is the number of Priority values.
const priorityLevels = int(PriorityHighest-PriorityLowest) + 1

func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityHighest:
		return "highest"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the five defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLowest && p <= PriorityHighest
}

// ParsePriority converts a level name ("lowest" ... "highest") into a Priority.
// Matching is case-insensitive; an empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lowest":
		return PriorityLowest, nil
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "highest":
		return PriorityHighest, nil
	default:
		return PriorityNormal, fmt.Errorf("unknown priority %q", s)
	}
}

// PriorityTable maps each Priority to the backend's native priority value.
// Entry 0 holds PriorityLowest, the last entry PriorityHighest.
type PriorityTable [priorityLevels]int

// Value returns the native value for p. Out-of-range levels map to the normal value.
func (t PriorityTable) Value(p Priority) int {
	if !p.Valid() {
		return t[PriorityNormal]
	}
	return t[p-PriorityLowest]
}
