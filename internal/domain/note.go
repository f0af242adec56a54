package domain

import (
	"strings"
	"time"
)

// NoteStatus issue status label. Transitions between values are unrestricted.
type NoteStatus string

const (
	NoteStatusOpen       NoteStatus = "open"
	NoteStatusInProgress NoteStatus = "inProgress"
	NoteStatusClosed     NoteStatus = "closed"
)

// NoteStatuses lists every accepted status in display order.
var NoteStatuses = []NoteStatus{NoteStatusOpen, NoteStatusInProgress, NoteStatusClosed}

// Valid reports whether s is one of the enumerated values (exact match).
func (s NoteStatus) Valid() bool {
	switch s {
	case NoteStatusOpen, NoteStatusInProgress, NoteStatusClosed:
		return true
	}
	return false
}

// Label is the human-readable form. Missing or unknown values read as "Open";
// the stored value is left untouched.
func (s NoteStatus) Label() string {
	switch s {
	case NoteStatusInProgress:
		return "In Progress"
	case NoteStatusClosed:
		return "Closed"
	default:
		return "Open"
	}
}

// ParseNoteStatus accepts the enumerated values, ignoring surrounding space.
func ParseNoteStatus(s string) (NoteStatus, error) {
	st := NoteStatus(strings.TrimSpace(s))
	if !st.Valid() {
		return "", Validationf("invalid status %q: must be one of open, inProgress, closed", s)
	}
	return st, nil
}

// Note issue record tied to a compound+method pair (collection "notes")
type Note struct {
	ID                string         `json:"id"`
	Compound          string         `json:"compound"`
	CAS               string         `json:"cas"`
	Method            string         `json:"method"`
	Notes             string         `json:"notes"`
	MethodDetails     map[string]any `json:"methodDetails"`
	Status            NoteStatus     `json:"status"`
	CorrectiveActions string         `json:"correctiveActions,omitempty"`
	AssignedTo        string         `json:"assignedTo,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         *time.Time     `json:"updatedAt,omitempty"`
}

// StatusLabel see NoteStatus.Label.
func (n Note) StatusLabel() string {
	return n.Status.Label()
}
