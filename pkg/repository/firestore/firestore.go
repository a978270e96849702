package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
)

// ErrNotFound is returned when the requested document does not exist
var ErrNotFound = interfaces.ErrNotFound

type Firestore struct {
	client    *firestore.Client
	visit     *visitRepository
	bpReading *bpReadingRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.visit.collectionPrefix = prefix
		f.bpReading.collectionPrefix = prefix
	}
}

// New opens the Firestore client shared by all repositories. An empty
// databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:    client,
		visit:     newVisitRepository(client),
		bpReading: newBPReadingRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Visit() interfaces.VisitRepository {
	return f.visit
}

func (f *Firestore) BPReading() interfaces.BPReadingRepository {
	return f.bpReading
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// VisitsCollection returns the visit collection name for a prefix
func VisitsCollection(prefix string) string {
	if prefix != "" {
		return prefix + "_visits"
	}
	return "visits"
}

// BPReadingsCollection returns the blood pressure collection name for a prefix
func BPReadingsCollection(prefix string) string {
	if prefix != "" {
		return prefix + "_bp_readings"
	}
	return "bp_readings"
}
