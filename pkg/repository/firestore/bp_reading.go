package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type bpReadingDocument struct {
	ID        string    `firestore:"id"`
	PatientID string    `firestore:"patient_id"`
	Systolic  int       `firestore:"systolic"`
	Diastolic int       `firestore:"diastolic"`
	Timestamp time.Time `firestore:"timestamp"`
}

func bpReadingToModel(doc *bpReadingDocument) *model.BPReading {
	return &model.BPReading{
		ID:        model.BPReadingID(doc.ID),
		PatientID: doc.PatientID,
		Systolic:  doc.Systolic,
		Diastolic: doc.Diastolic,
		Timestamp: doc.Timestamp,
	}
}

type bpReadingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newBPReadingRepository(client *firestore.Client) *bpReadingRepository {
	return &bpReadingRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *bpReadingRepository) readingsCollection() string {
	return BPReadingsCollection(r.collectionPrefix)
}

func (r *bpReadingRepository) Create(ctx context.Context, reading *model.BPReading) (*model.BPReading, error) {
	doc := &bpReadingDocument{
		ID:        string(model.NewBPReadingID()),
		PatientID: reading.PatientID,
		Systolic:  reading.Systolic,
		Diastolic: reading.Diastolic,
		Timestamp: reading.Timestamp,
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now().UTC()
	}

	if _, err := r.client.Collection(r.readingsCollection()).Doc(doc.ID).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create bp reading", goerr.V("patient_id", reading.PatientID))
	}

	return bpReadingToModel(doc), nil
}

func (r *bpReadingRepository) query(ctx context.Context, q firestore.Query) ([]*model.BPReading, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	readings := make([]*model.BPReading, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate bp readings")
		}

		var doc bpReadingDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal bp reading", goerr.V("doc_id", snap.Ref.ID))
		}
		readings = append(readings, bpReadingToModel(&doc))
	}
	return readings, nil
}

func (r *bpReadingRepository) Latest(ctx context.Context, patientID string) (*model.BPReading, error) {
	q := r.client.Collection(r.readingsCollection()).
		Where("patient_id", "==", patientID).
		OrderBy("timestamp", firestore.Desc).
		Limit(1)

	readings, err := r.query(ctx, q)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest bp reading", goerr.V("patient_id", patientID))
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return readings[0], nil
}

func (r *bpReadingRepository) Trend(ctx context.Context, patientID string, limit int) ([]*model.BPReading, error) {
	q := r.client.Collection(r.readingsCollection()).
		Where("patient_id", "==", patientID).
		OrderBy("timestamp", firestore.Asc).
		Limit(interfaces.TrendLimit(limit))

	readings, err := r.query(ctx, q)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list bp trend", goerr.V("patient_id", patientID))
	}
	return readings, nil
}
