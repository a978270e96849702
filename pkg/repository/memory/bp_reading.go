package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
)

type bpReadingRepository struct {
	mu       sync.RWMutex
	readings map[string][]*model.BPReading
}

func newBPReadingRepository() *bpReadingRepository {
	return &bpReadingRepository{
		readings: make(map[string][]*model.BPReading),
	}
}

func (r *bpReadingRepository) Create(ctx context.Context, reading *model.BPReading) (*model.BPReading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *reading
	created.ID = model.NewBPReadingID()
	if created.Timestamp.IsZero() {
		created.Timestamp = time.Now().UTC()
	}

	r.readings[created.PatientID] = append(r.readings[created.PatientID], &created)

	result := created
	return &result, nil
}

// sorted returns copies of the patient's readings in ascending timestamp order
func (r *bpReadingRepository) sorted(patientID string) []*model.BPReading {
	src := r.readings[patientID]
	result := make([]*model.BPReading, len(src))
	for i, reading := range src {
		copied := *reading
		result[i] = &copied
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

func (r *bpReadingRepository) Latest(ctx context.Context, patientID string) (*model.BPReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings := r.sorted(patientID)
	if len(readings) == 0 {
		return nil, nil
	}
	return readings[len(readings)-1], nil
}

func (r *bpReadingRepository) Trend(ctx context.Context, patientID string, limit int) ([]*model.BPReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings := r.sorted(patientID)
	limit = interfaces.TrendLimit(limit)
	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}
