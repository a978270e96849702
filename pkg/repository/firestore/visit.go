package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type visitDocument struct {
	ID            string        `firestore:"id"`
	PatientID     string        `firestore:"patient_id"`
	Timestamp     time.Time     `firestore:"timestamp"`
	RawTranscript string        `firestore:"raw_transcript"`
	Status        string        `firestore:"status"`
	ClinicalNote  *noteDocument `firestore:"clinical_note"`
	AudioURI      string        `firestore:"audio_uri,omitempty"`
	AudioMimeType string        `firestore:"audio_mime_type,omitempty"`
	CreatedAt     time.Time     `firestore:"created_at"`
	UpdatedAt     time.Time     `firestore:"updated_at"`
}

type noteDocument struct {
	Summary    string   `firestore:"patient_summary"`
	Subjective []string `firestore:"subjective"`
	Objective  []string `firestore:"objective"`
	Assessment string   `firestore:"assessment"`
	Plan       []string `firestore:"plan"`
}

func visitToDocument(v *model.Visit) *visitDocument {
	return &visitDocument{
		ID:            string(v.ID),
		PatientID:     v.PatientID,
		Timestamp:     v.Timestamp,
		RawTranscript: v.RawTranscript,
		Status:        string(v.Status),
		ClinicalNote:  noteToDocument(v.ClinicalNote),
		AudioURI:      v.AudioURI,
		AudioMimeType: v.AudioMimeType,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func visitToModel(doc *visitDocument) *model.Visit {
	return &model.Visit{
		ID:            model.VisitID(doc.ID),
		PatientID:     doc.PatientID,
		Timestamp:     doc.Timestamp,
		RawTranscript: doc.RawTranscript,
		Status:        types.VisitStatus(doc.Status),
		ClinicalNote:  noteToModel(doc.ClinicalNote),
		AudioURI:      doc.AudioURI,
		AudioMimeType: doc.AudioMimeType,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func noteToDocument(n *model.ClinicalNote) *noteDocument {
	if n == nil {
		return nil
	}
	return &noteDocument{
		Summary:    n.Summary,
		Subjective: n.Subjective,
		Objective:  n.Objective,
		Assessment: n.Assessment,
		Plan:       n.Plan,
	}
}

// noteToModel restores empty slices that Firestore may decode as nil
func noteToModel(doc *noteDocument) *model.ClinicalNote {
	if doc == nil {
		return nil
	}
	note := &model.ClinicalNote{
		Summary:    doc.Summary,
		Subjective: doc.Subjective,
		Objective:  doc.Objective,
		Assessment: doc.Assessment,
		Plan:       doc.Plan,
	}
	if note.Subjective == nil {
		note.Subjective = []string{}
	}
	if note.Objective == nil {
		note.Objective = []string{}
	}
	if note.Plan == nil {
		note.Plan = []string{}
	}
	return note
}

type visitRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newVisitRepository(client *firestore.Client) *visitRepository {
	return &visitRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *visitRepository) visitsCollection() string {
	return VisitsCollection(r.collectionPrefix)
}

func (r *visitRepository) Insert(ctx context.Context, visit *model.Visit) (*model.Visit, error) {
	now := time.Now().UTC()
	created := visit.Copy()
	created.ID = model.NewVisitID()
	if created.Timestamp.IsZero() {
		created.Timestamp = now
	}
	if created.Status == "" {
		created.Status = types.VisitStatusProcessing
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := visitToDocument(created)
	docRef := r.client.Collection(r.visitsCollection()).Doc(doc.ID)
	if _, err := docRef.Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to insert visit", goerr.V("id", created.ID))
	}

	return visitToModel(doc), nil
}

func (r *visitRepository) Get(ctx context.Context, id model.VisitID) (*model.Visit, error) {
	snap, err := r.client.Collection(r.visitsCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "visit not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get visit", goerr.V("id", id))
	}

	var doc visitDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal visit", goerr.V("id", id))
	}
	return visitToModel(&doc), nil
}

func (r *visitRepository) UpdateNote(ctx context.Context, id model.VisitID, note *model.ClinicalNote, next types.VisitStatus) error {
	docRef := r.client.Collection(r.visitsCollection()).Doc(string(id))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "visit not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get visit", goerr.V("id", id))
		}

		current, err := snap.DataAt("status")
		if err != nil {
			return goerr.Wrap(err, "failed to read visit status", goerr.V("id", id))
		}
		currentStatus, _ := current.(string)
		if !types.VisitStatus(currentStatus).CanTransitionTo(next) {
			return goerr.Wrap(interfaces.ErrAlreadyFinalized, "invalid visit status transition",
				goerr.V("id", id),
				goerr.V("from", currentStatus),
				goerr.V("to", next))
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "clinical_note", Value: noteToDocument(note)},
			{Path: "status", Value: string(next)},
			{Path: "updated_at", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update visit note", goerr.V("id", id))
	}

	return nil
}

func (r *visitRepository) collect(iter *firestore.DocumentIterator) ([]*model.Visit, error) {
	defer iter.Stop()

	visits := make([]*model.Visit, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate visits")
		}

		var doc visitDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal visit", goerr.V("doc_id", snap.Ref.ID))
		}
		visits = append(visits, visitToModel(&doc))
	}

	return visits, nil
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Visit, error) {
	query := r.client.Collection(r.visitsCollection()).Query
	if patientID != "" {
		query = query.Where("patient_id", "==", patientID)
	}
	query = query.OrderBy("timestamp", firestore.Desc)

	visits, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list visits", goerr.V("patient_id", patientID))
	}
	return visits, nil
}

func (r *visitRepository) ListTrend(ctx context.Context, patientID string, limit int) ([]*model.Visit, error) {
	query := r.client.Collection(r.visitsCollection()).
		Where("patient_id", "==", patientID).
		OrderBy("timestamp", firestore.Asc).
		Limit(interfaces.TrendLimit(limit))

	visits, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list visit trend",
			goerr.V("patient_id", patientID),
			goerr.V("limit", limit))
	}
	return visits, nil
}

func (r *visitRepository) CountFinalized(ctx context.Context, patientID string) (int64, error) {
	aq := r.client.Collection(r.visitsCollection()).
		Where("patient_id", "==", patientID).
		Where("status", "in", []string{
			string(types.VisitStatusCompleted),
			string(types.VisitStatusError),
		}).
		NewAggregationQuery().
		WithCount("count")

	result, err := aq.Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count finalized visits", goerr.V("patient_id", patientID))
	}

	value, ok := result["count"].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected aggregation result type",
			goerr.V("patient_id", patientID),
			goerr.V("result", result["count"]))
	}
	return value.GetIntegerValue(), nil
}

func (r *visitRepository) ListProcessingBefore(ctx context.Context, cutoff time.Time) ([]*model.Visit, error) {
	query := r.client.Collection(r.visitsCollection()).
		Where("status", "==", string(types.VisitStatusProcessing)).
		Where("created_at", "<", cutoff).
		OrderBy("created_at", firestore.Asc)

	visits, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list processing visits", goerr.V("cutoff", cutoff))
	}
	return visits, nil
}
