package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the combined patient view
type Dashboard struct {
	PatientID string
	Visits    []*model.Visit
	Timeline  []*model.TimelineEntry
	LatestBP  *model.BPReading
	Revision  int64
}

// Dashboard fetches visits, timeline, latest blood pressure and revision concurrently
func (uc *UseCases) Dashboard(ctx context.Context, patientID string) (*Dashboard, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, goerr.Wrap(ErrValidation, "patient_id is required")
	}

	result := &Dashboard{PatientID: patientID}
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		visits, err := uc.Visit.ListVisits(ctx, patientID)
		if err != nil {
			return err
		}
		result.Visits = visits
		return nil
	})

	eg.Go(func() error {
		timeline, err := uc.Visit.Timeline(ctx, patientID, 0)
		if err != nil {
			return err
		}
		result.Timeline = timeline
		return nil
	})

	eg.Go(func() error {
		reading, err := uc.BPReading.Latest(ctx, patientID)
		if err != nil {
			return err
		}
		result.LatestBP = reading
		return nil
	})

	eg.Go(func() error {
		revision, err := uc.Visit.Revision(ctx, patientID)
		if err != nil {
			return err
		}
		result.Revision = revision
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "failed to build dashboard", goerr.V(PatientIDKey, patientID))
	}

	return result, nil
}
