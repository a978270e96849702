package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
	"github.com/secmon-lab/soapnote/pkg/repository/memory"
	"github.com/secmon-lab/soapnote/pkg/service/audio"
	"github.com/secmon-lab/soapnote/pkg/service/synthesis"
	"github.com/secmon-lab/soapnote/pkg/usecase"
)

// mockSynthesis is a mock synthesis.Service for testing
type mockSynthesis struct {
	mu         sync.Mutex
	calls      int
	synthesize func(ctx context.Context, transcript string) (map[string]any, error)
}

func (m *mockSynthesis) Synthesize(ctx context.Context, transcript string) (map[string]any, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.synthesize(ctx, transcript)
}

func returning(candidate map[string]any, err error) *mockSynthesis {
	return &mockSynthesis{
		synthesize: func(ctx context.Context, transcript string) (map[string]any, error) {
			return candidate, err
		},
	}
}

// failingVisitRepo wraps a repository and fails selected visit operations
type failingRepo struct {
	interfaces.Repository
	visit *failingVisitRepo
}

func (r *failingRepo) Visit() interfaces.VisitRepository {
	return r.visit
}

type failingVisitRepo struct {
	interfaces.VisitRepository
	insertErr error
	updateErr error
	countErr  error
}

func (r *failingVisitRepo) Insert(ctx context.Context, v *model.Visit) (*model.Visit, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	return r.VisitRepository.Insert(ctx, v)
}

func (r *failingVisitRepo) UpdateNote(ctx context.Context, id model.VisitID, note *model.ClinicalNote, status types.VisitStatus) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.VisitRepository.UpdateNote(ctx, id, note, status)
}

func (r *failingVisitRepo) CountFinalized(ctx context.Context, patientID string) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.VisitRepository.CountFinalized(ctx, patientID)
}

func newFailingRepo(insertErr, updateErr error) *failingRepo {
	base := memory.New()
	return &failingRepo{
		Repository: base,
		visit: &failingVisitRepo{
			VisitRepository: base.Visit(),
			insertErr:       insertErr,
			updateErr:       updateErr,
		},
	}
}

var validCandidate = map[string]any{
	"patient_summary": "Mild headache for two days.",
	"subjective":      []any{"Headache x2 days", "No nausea"},
	"objective":       []any{"BP 120/80"},
	"assessment":      "Tension-type headache\nRule out migraine",
	"plan":            []any{"Ibuprofen 400mg PRN", 2.0},
}

func TestCapture_Completed(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	synth := returning(validCandidate, nil)
	uc := usecase.New(repo, usecase.WithSynthesis(synth))

	result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{
		PatientID:     "p1",
		RawTranscript: "Patient reports mild headache for two days.",
	})
	gt.NoError(t, err).Required()

	gt.Value(t, result.Visit.Status).Equal(types.VisitStatusCompleted)
	gt.Value(t, result.Visit.ClinicalNote).NotNil().Required()
	gt.Value(t, result.Visit.ClinicalNote.Summary).Equal("Mild headache for two days.")
	gt.Value(t, result.Visit.ClinicalNote.Plan).Equal([]string{"Ibuprofen 400mg PRN", "2"})
	gt.Value(t, result.Revision).NotNil().Required()
	gt.Value(t, *result.Revision).Equal(int64(1))
	gt.Value(t, synth.calls).Equal(1)

	stored, err := repo.Visit().Get(ctx, result.Visit.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Status).Equal(types.VisitStatusCompleted)
	gt.Value(t, stored.ClinicalNote.Assessment).Equal("Tension-type headache\nRule out migraine")
}

func TestCapture_ShortTranscriptWithRealAdapter(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	llm := &countingLLM{}
	svc, err := synthesis.New(llm)
	gt.NoError(t, err).Required()

	uc := usecase.New(repo, usecase.WithSynthesis(svc))
	result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "hi"})
	gt.NoError(t, err).Required()

	gt.Value(t, llm.sessions).Equal(0)
	gt.Value(t, result.Visit.Status).Equal(types.VisitStatusCompleted)
	gt.Value(t, result.Visit.ClinicalNote).Equal(&model.ClinicalNote{
		Summary:    "Transcript too short for analysis.",
		Subjective: []string{},
		Objective:  []string{},
		Assessment: "Insufficient information.",
		Plan:       []string{"Review the full conversation manually."},
	})
}

func TestCapture_SynthesisFailureDegrades(t *testing.T) {
	for name, synthErr := range map[string]error{
		"unavailable": synthesis.ErrUnavailable,
		"malformed":   synthesis.ErrMalformed,
		"unexpected":  errors.New("boom"),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := memory.New()
			uc := usecase.New(repo, usecase.WithSynthesis(returning(nil, synthErr)))

			result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{
				PatientID:     "p1",
				RawTranscript: "Doctor: How long has the cough lasted?",
			})
			gt.NoError(t, err).Required()

			gt.Value(t, result.Visit.Status).Equal(types.VisitStatusError)
			gt.Value(t, result.Visit.ClinicalNote).Equal(model.DegradedNote())
			gt.Value(t, *result.Revision).Equal(int64(1))

			stored, err := repo.Visit().Get(ctx, result.Visit.ID)
			gt.NoError(t, err).Required()
			gt.Value(t, stored.Status).Equal(types.VisitStatusError)
			gt.Value(t, stored.ClinicalNote.Assessment).Equal("Analysis Failed")
		})
	}
}

func TestCapture_BlankTranscriptSkipsSynthesis(t *testing.T) {
	ctx := context.Background()
	synth := returning(validCandidate, nil)
	uc := usecase.New(memory.New(), usecase.WithSynthesis(synth))

	result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "   \n\t "})
	gt.NoError(t, err).Required()

	gt.Value(t, synth.calls).Equal(0)
	gt.Value(t, result.Visit.Status).Equal(types.VisitStatusError)
	gt.Value(t, result.Visit.ClinicalNote).Equal(model.DegradedNote())
}

func TestCapture_WithoutSynthesisService(t *testing.T) {
	uc := usecase.New(memory.New())

	t.Run("full transcript is degraded", func(t *testing.T) {
		result, err := uc.Visit.Capture(context.Background(), usecase.CaptureInput{
			PatientID:     "p1",
			RawTranscript: "Patient reports mild headache for two days.",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, result.Visit.Status).Equal(types.VisitStatusError)
		gt.Value(t, result.Visit.ClinicalNote).Equal(model.DegradedNote())
	})

	t.Run("short transcript gets insufficient note", func(t *testing.T) {
		for _, transcript := range []string{"hi", "头痛三天了发烧"} {
			result, err := uc.Visit.Capture(context.Background(), usecase.CaptureInput{
				PatientID:     "p1",
				RawTranscript: transcript,
			})
			gt.NoError(t, err).Required()
			gt.Value(t, result.Visit.Status).Equal(types.VisitStatusCompleted)
			gt.Value(t, result.Visit.ClinicalNote).Equal(model.NormalizeNote(model.InsufficientTranscriptCandidate()))
		}
	})
}

func TestCapture_Validation(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	synth := returning(validCandidate, nil)
	uc := usecase.New(repo, usecase.WithSynthesis(synth))

	testCases := map[string]usecase.CaptureInput{
		"missing patient":    {RawTranscript: "Patient reports mild headache."},
		"blank patient":      {PatientID: "  ", RawTranscript: "Patient reports mild headache."},
		"missing transcript": {PatientID: "p1"},
		"oversized audio":    {PatientID: "p1", RawTranscript: "x", Audio: make([]byte, audio.MaxPayloadSize+1)},
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Visit.Capture(ctx, input)
			gt.Error(t, err).Is(usecase.ErrValidation)
		})
	}

	visits, err := repo.Visit().ListByPatient(ctx, "")
	gt.NoError(t, err).Required()
	gt.Array(t, visits).Length(0)
	gt.Value(t, synth.calls).Equal(0)
}

func TestCapture_StorageFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("insert fails before synthesis", func(t *testing.T) {
		synth := returning(validCandidate, nil)
		uc := usecase.New(newFailingRepo(errors.New("firestore down"), nil), usecase.WithSynthesis(synth))

		_, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "Patient reports mild headache."})
		gt.Error(t, err).Is(usecase.ErrStorageUnavailable)
		gt.Value(t, synth.calls).Equal(0)
	})

	t.Run("update fails after synthesis", func(t *testing.T) {
		repo := newFailingRepo(nil, errors.New("firestore down"))
		uc := usecase.New(repo, usecase.WithSynthesis(returning(validCandidate, nil)))

		_, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "Patient reports mild headache."})
		gt.Error(t, err).Is(usecase.ErrStorageUnavailable)

		visits, err := repo.Visit().ListByPatient(ctx, "p1")
		gt.NoError(t, err).Required()
		gt.Array(t, visits).Length(1).Required()
		gt.Value(t, visits[0].Status).Equal(types.VisitStatusProcessing)
		gt.Value(t, visits[0].ClinicalNote).Nil()
	})
}

func TestCapture_RevisionCountFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFailingRepo(nil, nil)
	repo.visit.countErr = errors.New("firestore down")
	uc := usecase.New(repo, usecase.WithSynthesis(returning(validCandidate, nil)))

	result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "Patient reports mild headache."})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Revision).Nil()
	gt.Value(t, result.Visit.Status).Equal(types.VisitStatusCompleted)

	visits, err := repo.Visit().ListByPatient(ctx, "p1")
	gt.NoError(t, err).Required()
	gt.Array(t, visits).Length(1).Required()
	gt.Value(t, visits[0].ID).Equal(result.Visit.ID)
	gt.Value(t, visits[0].Status).Equal(types.VisitStatusCompleted)
}

func TestCapture_CancelledRequestStillFinalizes(t *testing.T) {
	repo := memory.New()
	ctx, cancel := context.WithCancel(context.Background())

	synth := &mockSynthesis{
		synthesize: func(synthCtx context.Context, transcript string) (map[string]any, error) {
			cancel()
			gt.NoError(t, synthCtx.Err())
			return validCandidate, nil
		},
	}
	uc := usecase.New(repo, usecase.WithSynthesis(synth))

	result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "Patient reports mild headache."})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Visit.Status).Equal(types.VisitStatusCompleted)
}

func TestCapture_Audio(t *testing.T) {
	ctx := context.Background()

	t.Run("archived when store configured", func(t *testing.T) {
		store := audio.NewMemory()
		uc := usecase.New(memory.New(),
			usecase.WithSynthesis(returning(validCandidate, nil)),
			usecase.WithAudioStore(store),
		)

		result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{
			PatientID:     "p1",
			RawTranscript: "Patient reports mild headache.",
			Audio:         []byte("webm-bytes"),
			AudioMimeType: "audio/webm",
		})
		gt.NoError(t, err).Required()
		gt.String(t, result.Visit.AudioURI).NotEqual("")
		gt.Value(t, result.Visit.AudioMimeType).Equal("audio/webm")

		obj, ok := store.Get(result.Visit.AudioURI)
		gt.Bool(t, ok).True()
		gt.Value(t, string(obj.Data)).Equal("webm-bytes")
	})

	t.Run("ignored without store", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithSynthesis(returning(validCandidate, nil)))

		result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{
			PatientID:     "p1",
			RawTranscript: "Patient reports mild headache.",
			Audio:         []byte("webm-bytes"),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, result.Visit.AudioURI).Equal("")
	})
}

func TestVisitQueries(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithSynthesis(returning(validCandidate, nil)))

	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	r1, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", Timestamp: t1, RawTranscript: "First visit transcript."})
	gt.NoError(t, err).Required()
	r2, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", Timestamp: t2, RawTranscript: "Second visit transcript."})
	gt.NoError(t, err).Required()
	gt.Value(t, *r2.Revision).Equal(*r1.Revision + 1)

	t.Run("ListVisits newest first", func(t *testing.T) {
		visits, err := uc.Visit.ListVisits(ctx, "p1")
		gt.NoError(t, err).Required()
		gt.Array(t, visits).Length(2).Required()
		gt.Value(t, visits[0].ID).Equal(r2.Visit.ID)
		gt.Value(t, visits[1].ID).Equal(r1.Visit.ID)
	})

	t.Run("Timeline newest first with latest flag", func(t *testing.T) {
		entries, err := uc.Visit.Timeline(ctx, "p1", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(2).Required()
		gt.Value(t, entries[0].VisitID).Equal(r2.Visit.ID)
		gt.Bool(t, entries[0].Latest).True()
		gt.Bool(t, entries[1].Latest).False()
		gt.Value(t, entries[0].Title).Equal("Tension-type headache")
	})

	t.Run("Timeline requires patient", func(t *testing.T) {
		_, err := uc.Visit.Timeline(ctx, "", 0)
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("GetVisit", func(t *testing.T) {
		visit, err := uc.Visit.GetVisit(ctx, r1.Visit.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, visit.RawTranscript).Equal("First visit transcript.")

		_, err = uc.Visit.GetVisit(ctx, "missing")
		gt.Error(t, err).Is(usecase.ErrNotFound)
	})

	t.Run("Revision", func(t *testing.T) {
		rev, err := uc.Visit.Revision(ctx, "p1")
		gt.NoError(t, err).Required()
		gt.Value(t, rev).Equal(int64(2))

		rev, err = uc.Visit.Revision(ctx, "p2")
		gt.NoError(t, err).Required()
		gt.Value(t, rev).Equal(int64(0))
	})

	t.Run("Dashboard", func(t *testing.T) {
		_, err := uc.BPReading.Record(ctx, "p1", 128, 84, t2)
		gt.NoError(t, err).Required()

		dash, err := uc.Dashboard(ctx, "p1")
		gt.NoError(t, err).Required()
		gt.Array(t, dash.Visits).Length(2)
		gt.Array(t, dash.Timeline).Length(2)
		gt.Value(t, dash.Revision).Equal(int64(2))
		gt.Value(t, dash.LatestBP).NotNil().Required()
		gt.Value(t, dash.LatestBP.Systolic).Equal(128)
	})
}

func TestCapture_StatusNoteCoupling(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	outcomes := []*mockSynthesis{
		returning(validCandidate, nil),
		returning(nil, synthesis.ErrMalformed),
		returning(map[string]any{"unexpected": true}, nil),
	}
	for _, synth := range outcomes {
		uc := usecase.New(repo, usecase.WithSynthesis(synth))
		_, err := uc.Visit.Capture(ctx, usecase.CaptureInput{PatientID: "p1", RawTranscript: "Doctor and patient talk."})
		gt.NoError(t, err).Required()
	}

	visits, err := repo.Visit().ListByPatient(ctx, "p1")
	gt.NoError(t, err).Required()
	gt.Array(t, visits).Length(3)
	for _, v := range visits {
		switch v.Status {
		case types.VisitStatusProcessing:
			gt.Value(t, v.ClinicalNote).Nil()
		default:
			gt.Value(t, v.ClinicalNote).NotNil().Required()
			gt.Value(t, v.ClinicalNote.Subjective).NotNil()
			gt.Value(t, v.ClinicalNote.Objective).NotNil()
			gt.Value(t, v.ClinicalNote.Plan).NotNil()
		}
	}
}
