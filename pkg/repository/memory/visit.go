package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/domain/types"
)

type visitRepository struct {
	mu     sync.RWMutex
	visits map[model.VisitID]*model.Visit
}

func newVisitRepository() *visitRepository {
	return &visitRepository{
		visits: make(map[model.VisitID]*model.Visit),
	}
}

func (r *visitRepository) Insert(ctx context.Context, visit *model.Visit) (*model.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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

	r.visits[created.ID] = created
	return created.Copy(), nil
}

func (r *visitRepository) Get(ctx context.Context, id model.VisitID) (*model.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	visit, exists := r.visits[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "visit not found", goerr.V("id", id))
	}
	return visit.Copy(), nil
}

func (r *visitRepository) UpdateNote(ctx context.Context, id model.VisitID, note *model.ClinicalNote, status types.VisitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	visit, exists := r.visits[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "visit not found", goerr.V("id", id))
	}
	if !visit.Status.CanTransitionTo(status) {
		return goerr.Wrap(interfaces.ErrAlreadyFinalized, "invalid visit status transition",
			goerr.V("id", id),
			goerr.V("from", visit.Status),
			goerr.V("to", status))
	}

	if note != nil {
		visit.ClinicalNote = note.Copy()
	}
	visit.Status = status
	visit.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *visitRepository) filter(match func(v *model.Visit) bool) []*model.Visit {
	var result []*model.Visit
	for _, v := range r.visits {
		if match(v) {
			result = append(result, v.Copy())
		}
	}
	return result
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.filter(func(v *model.Visit) bool {
		return patientID == "" || v.PatientID == patientID
	})
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if result == nil {
		return []*model.Visit{}, nil
	}
	return result, nil
}

func (r *visitRepository) ListTrend(ctx context.Context, patientID string, limit int) ([]*model.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.filter(func(v *model.Visit) bool {
		return v.PatientID == patientID
	})
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	limit = interfaces.TrendLimit(limit)
	if len(result) > limit {
		result = result[:limit]
	}

	if result == nil {
		return []*model.Visit{}, nil
	}
	return result, nil
}

func (r *visitRepository) CountFinalized(ctx context.Context, patientID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, v := range r.visits {
		if v.PatientID == patientID && v.IsFinalized() {
			count++
		}
	}
	return count, nil
}

func (r *visitRepository) ListProcessingBefore(ctx context.Context, cutoff time.Time) ([]*model.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.filter(func(v *model.Visit) bool {
		return v.Status == types.VisitStatusProcessing && v.CreatedAt.Before(cutoff)
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if result == nil {
		return []*model.Visit{}, nil
	}
	return result, nil
}
