package interfaces

import (
	"context"

	"github.com/secmon-lab/soapnote/pkg/domain/model"
)

// BPReadingRepository defines the interface for blood pressure reading data access
type BPReadingRepository interface {
	// Create stores a new reading with an auto-generated ID
	Create(ctx context.Context, reading *model.BPReading) (*model.BPReading, error)

	// Latest returns the most recent reading of the patient.
	// Returns nil, nil if the patient has no readings.
	Latest(ctx context.Context, patientID string) (*model.BPReading, error)

	// Trend returns at most limit readings ordered by Timestamp ascending.
	// limit <= 0 means DefaultTrendLimit.
	Trend(ctx context.Context, patientID string, limit int) ([]*model.BPReading, error)
}
