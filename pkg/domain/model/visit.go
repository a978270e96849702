package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
)

// VisitID is a UUID-based identifier for Visit
type VisitID string

// NewVisitID generates a new UUID v4 VisitID
func NewVisitID() VisitID {
	return VisitID(uuid.New().String())
}

// Visit is one captured patient encounter. PatientID, Timestamp and
// RawTranscript are fixed at creation; only Status and ClinicalNote are
// written afterwards, once, when synthesis resolves.
type Visit struct {
	ID            VisitID
	PatientID     string
	Timestamp     time.Time
	RawTranscript string `masq:"secret"`
	Status        types.VisitStatus
	ClinicalNote  *ClinicalNote // nil while Status is processing
	AudioURI      string
	AudioMimeType string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPendingVisit builds the placeholder visit written before synthesis starts.
// A zero timestamp defaults to now.
func NewPendingVisit(patientID string, timestamp time.Time, transcript string) *Visit {
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	return &Visit{
		PatientID:     patientID,
		Timestamp:     timestamp.UTC(),
		RawTranscript: transcript,
		Status:        types.VisitStatusProcessing,
	}
}

// IsFinalized reports whether the visit reached a terminal status.
func (v *Visit) IsFinalized() bool {
	return v.Status.IsTerminal()
}

// Copy returns a deep copy of the visit.
func (v *Visit) Copy() *Visit {
	copied := *v
	if v.ClinicalNote != nil {
		copied.ClinicalNote = v.ClinicalNote.Copy()
	}
	return &copied
}
