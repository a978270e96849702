package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
)

// DefaultTrendLimit caps trend queries when no positive limit is given
const DefaultTrendLimit = 30

// VisitRepository defines the interface for Visit data access
type VisitRepository interface {
	// Insert stores a new visit with an auto-generated ID and returns the stored copy
	Insert(ctx context.Context, visit *model.Visit) (*model.Visit, error)

	// Get retrieves a visit by ID
	Get(ctx context.Context, id model.VisitID) (*model.Visit, error)

	// UpdateNote sets the clinical note and status of an existing visit.
	// Returns ErrNotFound if the visit does not exist and ErrAlreadyFinalized
	// if it has already left processing status.
	UpdateNote(ctx context.Context, id model.VisitID, note *model.ClinicalNote, status types.VisitStatus) error

	// ListByPatient returns visits ordered by Timestamp descending.
	// An empty patientID lists visits of all patients.
	ListByPatient(ctx context.Context, patientID string) ([]*model.Visit, error)

	// ListTrend returns at most limit visits ordered by Timestamp ascending.
	// limit <= 0 means DefaultTrendLimit.
	ListTrend(ctx context.Context, patientID string, limit int) ([]*model.Visit, error)

	// CountFinalized counts visits of the patient that reached a terminal status
	CountFinalized(ctx context.Context, patientID string) (int64, error)

	// ListProcessingBefore returns visits still in processing status created before cutoff
	ListProcessingBefore(ctx context.Context, cutoff time.Time) ([]*model.Visit, error)
}

// TrendLimit resolves the effective cap for a trend query
func TrendLimit(limit int) int {
	if limit <= 0 {
		return DefaultTrendLimit
	}
	return limit
}
