package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
	"github.com/secmon-lab/soapnote/pkg/service/audio"
	"github.com/secmon-lab/soapnote/pkg/service/synthesis"
	"github.com/secmon-lab/soapnote/pkg/utils/errutil"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
)

type VisitUseCase struct {
	repo       interfaces.Repository
	synthesis  synthesis.Service
	audio      audio.Store
	trendLimit int
}

func NewVisitUseCase(repo interfaces.Repository, synth synthesis.Service, store audio.Store, trendLimit int) *VisitUseCase {
	return &VisitUseCase{
		repo:       repo,
		synthesis:  synth,
		audio:      store,
		trendLimit: interfaces.TrendLimit(trendLimit),
	}
}

// CaptureInput is one submitted visit
type CaptureInput struct {
	PatientID     string
	Timestamp     time.Time
	RawTranscript string `masq:"secret"`
	Audio         []byte `masq:"secret"`
	AudioMimeType string
}

// CaptureResult is the finalized visit and the patient's revision after it.
// Revision is nil when the count could not be read; the visit is saved either way.
type CaptureResult struct {
	Visit    *model.Visit
	Revision *int64
}

// Capture persists a visit, synthesizes its note and finalizes it. The
// sequence is insert, synthesize, normalize, update. Synthesis failures are
// recovered here: the visit is finalized with status error and the degraded
// note, and no error is returned.
func (uc *VisitUseCase) Capture(ctx context.Context, input CaptureInput) (*CaptureResult, error) {
	patientID := strings.TrimSpace(input.PatientID)
	if patientID == "" {
		return nil, goerr.Wrap(ErrValidation, "patient_id is required")
	}
	if input.RawTranscript == "" {
		return nil, goerr.Wrap(ErrValidation, "raw_transcript is required", goerr.V(PatientIDKey, patientID))
	}
	if len(input.Audio) > audio.MaxPayloadSize {
		return nil, goerr.Wrap(ErrValidation, "audio_recording is too large",
			goerr.V(PatientIDKey, patientID),
			goerr.V("size", len(input.Audio)))
	}

	visit := model.NewPendingVisit(patientID, input.Timestamp, input.RawTranscript)

	if len(input.Audio) > 0 {
		if uc.audio == nil {
			logging.From(ctx).Warn("audio recording ignored, no audio store configured",
				PatientIDKey, patientID,
				"size", len(input.Audio))
		} else {
			uri, err := uc.audio.Put(ctx, input.Audio, input.AudioMimeType)
			if err != nil {
				return nil, goerr.Wrap(ErrStorageUnavailable, "failed to archive audio recording",
					goerr.V(PatientIDKey, patientID),
					goerr.V("cause", err.Error()))
			}
			visit.AudioURI = uri
			visit.AudioMimeType = input.AudioMimeType
		}
	}

	created, err := uc.repo.Visit().Insert(ctx, visit)
	if err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to insert visit",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}

	logger := logging.From(ctx).With(VisitIDKey, created.ID, PatientIDKey, patientID)
	logger.Info("visit recorded, synthesizing note")

	// A client disconnect must not strand the visit in processing; the
	// synthesis timeout bounds this instead.
	finalizeCtx := context.WithoutCancel(ctx)

	note, status := uc.synthesize(finalizeCtx, created)
	if err := uc.repo.Visit().UpdateNote(finalizeCtx, created.ID, note, status); err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to finalize visit",
			goerr.V(VisitIDKey, created.ID),
			goerr.V("cause", err.Error()))
	}

	created.ClinicalNote = note
	created.Status = status
	created.UpdatedAt = time.Now().UTC()

	result := &CaptureResult{Visit: created}

	revision, err := uc.repo.Visit().CountFinalized(finalizeCtx, patientID)
	if err != nil {
		_ = errutil.Handle(finalizeCtx, goerr.Wrap(err, "failed to count finalized visits",
			goerr.V(PatientIDKey, patientID),
			goerr.V(VisitIDKey, created.ID)), "visit finalized without revision")
	} else {
		result.Revision = &revision
	}

	logger.Info("visit finalized", "status", status)

	return result, nil
}

// synthesize returns the note and terminal status for a pending visit
func (uc *VisitUseCase) synthesize(ctx context.Context, visit *model.Visit) (*model.ClinicalNote, types.VisitStatus) {
	logger := logging.From(ctx).With(VisitIDKey, visit.ID)

	if strings.TrimSpace(visit.RawTranscript) == "" {
		logger.Warn("transcript is blank, finalizing with degraded note")
		return model.DegradedNote(), types.VisitStatusError
	}

	if synthesis.IsTooShort(visit.RawTranscript) {
		logger.Warn("transcript too short for synthesis")
		return model.NormalizeNote(model.InsufficientTranscriptCandidate()), types.VisitStatusCompleted
	}

	if uc.synthesis == nil {
		logger.Warn("no synthesis service configured, finalizing with degraded note")
		return model.DegradedNote(), types.VisitStatusError
	}

	candidate, err := uc.synthesis.Synthesize(ctx, visit.RawTranscript)
	if err != nil {
		reason := "unknown"
		switch {
		case errors.Is(err, ErrSynthesisUnavailable):
			reason = "unavailable"
		case errors.Is(err, ErrSynthesisMalformed):
			reason = "malformed"
		}
		logger.Warn("note synthesis failed, finalizing with degraded note",
			"reason", reason,
			"error", err.Error())
		return model.DegradedNote(), types.VisitStatusError
	}

	return model.NormalizeNote(candidate), types.VisitStatusCompleted
}

// ListVisits returns visits newest first. An empty patientID lists every visit.
func (uc *VisitUseCase) ListVisits(ctx context.Context, patientID string) ([]*model.Visit, error) {
	visits, err := uc.repo.Visit().ListByPatient(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to list visits",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}
	return visits, nil
}

func (uc *VisitUseCase) GetVisit(ctx context.Context, id model.VisitID) (*model.Visit, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrValidation, "visit id is required")
	}

	visit, err := uc.repo.Visit().Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, goerr.Wrap(err, "visit not found", goerr.V(VisitIDKey, id))
		}
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to get visit",
			goerr.V(VisitIDKey, id),
			goerr.V("cause", err.Error()))
	}
	return visit, nil
}

// Timeline returns display entries for a patient's most recent visits,
// newest first, with the first entry flagged Latest
func (uc *VisitUseCase) Timeline(ctx context.Context, patientID string, limit int) ([]*model.TimelineEntry, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, goerr.Wrap(ErrValidation, "patient_id is required")
	}
	if limit <= 0 {
		limit = uc.trendLimit
	}

	visits, err := uc.repo.Visit().ListTrend(ctx, patientID, limit)
	if err != nil {
		return nil, goerr.Wrap(ErrStorageUnavailable, "failed to list visit trend",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}

	return model.BuildTimeline(visits), nil
}

// Revision returns the number of finalized visits of the patient. It grows
// by one each time a visit is finalized, so clients poll it to decide when
// to re-fetch.
func (uc *VisitUseCase) Revision(ctx context.Context, patientID string) (int64, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return 0, goerr.Wrap(ErrValidation, "patient_id is required")
	}

	count, err := uc.repo.Visit().CountFinalized(ctx, patientID)
	if err != nil {
		return 0, goerr.Wrap(ErrStorageUnavailable, "failed to count finalized visits",
			goerr.V(PatientIDKey, patientID),
			goerr.V("cause", err.Error()))
	}
	return count, nil
}
