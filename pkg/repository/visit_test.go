package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
	"github.com/secmon-lab/soapnote/pkg/repository/firestore"
	"github.com/secmon-lab/soapnote/pkg/repository/memory"
)

func uniquePatient(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func runVisitRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Insert assigns ID and processing status", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		visit := &model.Visit{
			PatientID:     uniquePatient("p"),
			Timestamp:     ts,
			RawTranscript: "Doctor: How are you feeling?",
		}

		created, err := repo.Visit().Insert(ctx, visit)
		gt.NoError(t, err).Required()

		gt.String(t, string(created.ID)).NotEqual("")
		gt.Value(t, created.PatientID).Equal(visit.PatientID)
		gt.Value(t, created.RawTranscript).Equal(visit.RawTranscript)
		gt.Value(t, created.Status).Equal(types.VisitStatusProcessing)
		gt.Bool(t, created.Timestamp.Equal(ts)).True()
		gt.Value(t, created.ClinicalNote).Nil()
		gt.Bool(t, created.CreatedAt.IsZero()).False()
	})

	t.Run("Insert assigns distinct IDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		patientID := uniquePatient("p")

		v1, err := repo.Visit().Insert(ctx, &model.Visit{PatientID: patientID, RawTranscript: "a"})
		gt.NoError(t, err).Required()
		v2, err := repo.Visit().Insert(ctx, &model.Visit{PatientID: patientID, RawTranscript: "a"})
		gt.NoError(t, err).Required()

		gt.Value(t, v1.ID).NotEqual(v2.ID)
	})

	t.Run("Get returns stored visit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Visit().Insert(ctx, &model.Visit{
			PatientID:     uniquePatient("p"),
			RawTranscript: "Patient: I have a headache.",
		})
		gt.NoError(t, err).Required()

		got, err := repo.Visit().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(created.ID)
		gt.Value(t, got.RawTranscript).Equal(created.RawTranscript)
		gt.Value(t, got.Status).Equal(types.VisitStatusProcessing)
	})

	t.Run("Get returns ErrNotFound for unknown visit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Visit().Get(ctx, model.VisitID("no-such-visit"))
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("UpdateNote finalizes visit with note", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Visit().Insert(ctx, &model.Visit{
			PatientID:     uniquePatient("p"),
			RawTranscript: "Doctor: Any pain? Patient: Yes, in my knee.",
		})
		gt.NoError(t, err).Required()

		note := &model.ClinicalNote{
			Summary:    "Knee pain reported.",
			Subjective: []string{"Knee pain"},
			Objective:  []string{},
			Assessment: "Possible strain",
			Plan:       []string{"Rest", "Ice"},
		}
		gt.NoError(t, repo.Visit().UpdateNote(ctx, created.ID, note, types.VisitStatusCompleted)).Required()

		got, err := repo.Visit().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.VisitStatusCompleted)
		gt.Value(t, got.ClinicalNote).NotNil()
		gt.Value(t, got.ClinicalNote.Summary).Equal(note.Summary)
		gt.Value(t, got.ClinicalNote.Assessment).Equal(note.Assessment)
		gt.Array(t, got.ClinicalNote.Plan).Length(2)
		gt.Array(t, got.ClinicalNote.Objective).Length(0)
		gt.Value(t, got.ClinicalNote.Objective).NotNil()
	})

	t.Run("UpdateNote rejects second finalization", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Visit().Insert(ctx, &model.Visit{
			PatientID:     uniquePatient("p"),
			RawTranscript: "short",
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Visit().UpdateNote(ctx, created.ID, model.DegradedNote(), types.VisitStatusError)).Required()

		err = repo.Visit().UpdateNote(ctx, created.ID, &model.ClinicalNote{Summary: "late"}, types.VisitStatusCompleted)
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, interfaces.ErrAlreadyFinalized)).True()

		got, err := repo.Visit().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.VisitStatusError)
		gt.Value(t, got.ClinicalNote.Summary).Equal(model.DegradedNote().Summary)
	})

	t.Run("UpdateNote returns ErrNotFound for unknown visit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.Visit().UpdateNote(ctx, model.VisitID("missing"), model.DegradedNote(), types.VisitStatusError)
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})

	t.Run("ListByPatient returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		patientID := uniquePatient("p")
		other := uniquePatient("q")

		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			_, err := repo.Visit().Insert(ctx, &model.Visit{
				PatientID:     patientID,
				Timestamp:     base.Add(time.Duration(i) * time.Hour),
				RawTranscript: fmt.Sprintf("visit %d", i),
			})
			gt.NoError(t, err).Required()
		}
		_, err := repo.Visit().Insert(ctx, &model.Visit{PatientID: other, RawTranscript: "other"})
		gt.NoError(t, err).Required()

		visits, err := repo.Visit().ListByPatient(ctx, patientID)
		gt.NoError(t, err).Required()
		gt.Array(t, visits).Length(3).Required()
		gt.Value(t, visits[0].RawTranscript).Equal("visit 2")
		gt.Value(t, visits[2].RawTranscript).Equal("visit 0")
	})

	t.Run("ListByPatient returns empty slice for unknown patient", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		visits, err := repo.Visit().ListByPatient(ctx, uniquePatient("nobody"))
		gt.NoError(t, err).Required()
		gt.Value(t, visits).NotNil()
		gt.Array(t, visits).Length(0)
	})

	t.Run("ListTrend returns ascending capped list", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		patientID := uniquePatient("p")

		base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		for i := 4; i >= 0; i-- {
			_, err := repo.Visit().Insert(ctx, &model.Visit{
				PatientID:     patientID,
				Timestamp:     base.Add(time.Duration(i) * 24 * time.Hour),
				RawTranscript: fmt.Sprintf("day %d", i),
			})
			gt.NoError(t, err).Required()
		}

		visits, err := repo.Visit().ListTrend(ctx, patientID, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, visits).Length(3).Required()
		gt.Value(t, visits[0].RawTranscript).Equal("day 0")
		gt.Value(t, visits[1].RawTranscript).Equal("day 1")
		gt.Value(t, visits[2].RawTranscript).Equal("day 2")
	})

	t.Run("CountFinalized counts only terminal visits", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		patientID := uniquePatient("p")

		count, err := repo.Visit().CountFinalized(ctx, patientID)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(int64(0))

		var ids []model.VisitID
		for i := 0; i < 3; i++ {
			v, err := repo.Visit().Insert(ctx, &model.Visit{PatientID: patientID, RawTranscript: "x"})
			gt.NoError(t, err).Required()
			ids = append(ids, v.ID)
		}

		gt.NoError(t, repo.Visit().UpdateNote(ctx, ids[0], &model.ClinicalNote{Summary: "ok"}, types.VisitStatusCompleted)).Required()
		gt.NoError(t, repo.Visit().UpdateNote(ctx, ids[1], model.DegradedNote(), types.VisitStatusError)).Required()

		count, err = repo.Visit().CountFinalized(ctx, patientID)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(int64(2))
	})

	t.Run("ListProcessingBefore returns stale processing visits", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		patientID := uniquePatient("p")

		pending, err := repo.Visit().Insert(ctx, &model.Visit{PatientID: patientID, RawTranscript: "pending"})
		gt.NoError(t, err).Required()
		done, err := repo.Visit().Insert(ctx, &model.Visit{PatientID: patientID, RawTranscript: "done"})
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Visit().UpdateNote(ctx, done.ID, &model.ClinicalNote{Summary: "ok"}, types.VisitStatusCompleted)).Required()

		visits, err := repo.Visit().ListProcessingBefore(ctx, time.Now().Add(time.Minute))
		gt.NoError(t, err).Required()

		var foundPending, foundDone bool
		for _, v := range visits {
			if v.ID == pending.ID {
				foundPending = true
			}
			if v.ID == done.ID {
				foundDone = true
			}
		}
		gt.Bool(t, foundPending).True()
		gt.Bool(t, foundDone).False()

		visits, err = repo.Visit().ListProcessingBefore(ctx, time.Now().Add(-time.Hour))
		gt.NoError(t, err).Required()
		for _, v := range visits {
			gt.Value(t, v.ID).NotEqual(pending.ID)
		}
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func TestMemoryVisitRepository(t *testing.T) {
	runVisitRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreVisitRepository(t *testing.T) {
	runVisitRepositoryTest(t, newFirestoreRepository)
}
