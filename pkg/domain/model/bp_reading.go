package model

import (
	"time"

	"github.com/google/uuid"
)

// BPReadingID is a UUID-based identifier for BPReading
type BPReadingID string

// NewBPReadingID generates a new UUID v4 BPReadingID
func NewBPReadingID() BPReadingID {
	return BPReadingID(uuid.New().String())
}

// BPReading is a blood pressure measurement logged for a patient
type BPReading struct {
	ID        BPReadingID
	PatientID string
	Systolic  int
	Diastolic int
	Timestamp time.Time
}
