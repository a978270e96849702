package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
)

type BPReadingUseCase struct {
	repo       interfaces.Repository
	trendLimit int
}

func NewBPReadingUseCase(repo interfaces.Repository, trendLimit int) *BPReadingUseCase {
	return &BPReadingUseCase{
		repo:       repo,
		trendLimit: interfaces.TrendLimit(trendLimit),
	}
}

func (uc *BPReadingUseCase) Record(ctx context.Context, patientID string, systolic, diastolic int, timestamp time.Time) (*model.BPReading, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, goerr.Wrap(ErrValidation, "patient_id is required")
	}
	if systolic <= 0 || diastolic <= 0 {
		return nil, goerr.Wrap(ErrValidation, "systolic and diastolic must be positive",
			goerr.V("systolic", systolic),
			goerr.V("diastolic", diastolic))
	}

	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	created, err := uc.repo.BPReading().Create(ctx, &model.BPReading{
		PatientID: patientID,
		Systolic:  systolic,
		Diastolic: diastolic,
		Timestamp: timestamp.UTC(),
	})
	if err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to create bp reading",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}

	return created, nil
}

// Latest returns the newest reading, or nil when the patient has none
func (uc *BPReadingUseCase) Latest(ctx context.Context, patientID string) (*model.BPReading, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, goerr.Wrap(ErrValidation, "patient_id is required")
	}

	reading, err := uc.repo.BPReading().Latest(ctx, patientID)
	if err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to get latest bp reading",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}
	return reading, nil
}

// Trend returns readings in ascending timestamp order
func (uc *BPReadingUseCase) Trend(ctx context.Context, patientID string, limit int) ([]*model.BPReading, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, goerr.Wrap(ErrValidation, "patient_id is required")
	}
	if limit <= 0 {
		limit = uc.trendLimit
	}

	readings, err := uc.repo.BPReading().Trend(ctx, patientID, limit)
	if err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to list bp trend",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}
	return readings, nil
}
