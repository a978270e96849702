package types

import "fmt"

// VisitStatus represents the lifecycle state of a captured visit
type VisitStatus string

const (
	VisitStatusProcessing VisitStatus = "processing"
	VisitStatusCompleted  VisitStatus = "completed"
	VisitStatusError      VisitStatus = "error"
)

// AllVisitStatuses returns all valid visit statuses
func AllVisitStatuses() []VisitStatus {
	return []VisitStatus{
		VisitStatusProcessing,
		VisitStatusCompleted,
		VisitStatusError,
	}
}

// IsValid checks if the visit status is valid
func (s VisitStatus) IsValid() bool {
	switch s {
	case VisitStatusProcessing,
		VisitStatusCompleted,
		VisitStatusError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s VisitStatus) IsTerminal() bool {
	return s == VisitStatusCompleted || s == VisitStatusError
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only processing -> completed and processing -> error are permitted.
func (s VisitStatus) CanTransitionTo(next VisitStatus) bool {
	return s == VisitStatusProcessing && next.IsTerminal()
}

// String returns the string representation of the visit status
func (s VisitStatus) String() string {
	return string(s)
}

// ParseVisitStatus parses a string into a VisitStatus
func ParseVisitStatus(s string) (VisitStatus, error) {
	status := VisitStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid visit status: %s", s)
	}
	return status, nil
}
