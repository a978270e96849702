package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
)

const (
	DefaultStaleThreshold = 10 * time.Minute
	DefaultScanInterval   = time.Minute
)

// Notifier receives visits that have been stuck in processing longer than the threshold
type Notifier interface {
	NotifyStaleVisit(ctx context.Context, visit *model.Visit, age time.Duration) error
}

// StaleVisitMonitor periodically flags visits left in processing, e.g. by a
// crash between insert and finalization. It only reports; visits are never
// modified.
//
// Architecture assumptions:
// - Single server instance (reported set is process local)
type StaleVisitMonitor struct {
	repo      interfaces.Repository
	notifiers []Notifier
	threshold time.Duration
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	reported map[model.VisitID]struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

// MonitorOption configures StaleVisitMonitor
type MonitorOption func(*StaleVisitMonitor)

// WithThreshold sets the processing age after which a visit is reported
func WithThreshold(d time.Duration) MonitorOption {
	return func(m *StaleVisitMonitor) {
		if d > 0 {
			m.threshold = d
		}
	}
}

// WithInterval sets the scan interval
func WithInterval(d time.Duration) MonitorOption {
	return func(m *StaleVisitMonitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithNotifier adds a notifier for stale visits
func WithNotifier(n Notifier) MonitorOption {
	return func(m *StaleVisitMonitor) {
		m.notifiers = append(m.notifiers, n)
	}
}

// NewStaleVisitMonitor creates a new monitor for visits stuck in processing
func NewStaleVisitMonitor(repo interfaces.Repository, opts ...MonitorOption) *StaleVisitMonitor {
	m := &StaleVisitMonitor{
		repo:      repo,
		threshold: DefaultStaleThreshold,
		interval:  DefaultScanInterval,
		now:       time.Now,
		reported:  make(map[model.VisitID]struct{}),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins the background scan loop
func (m *StaleVisitMonitor) Start(ctx context.Context) error {
	logging.Default().Info("Stale visit monitor starting",
		"interval", m.interval.String(),
		"threshold", m.threshold.String())

	go m.run(ctx)

	return nil
}

// Stop signals the monitor to stop and waits for completion
func (m *StaleVisitMonitor) Stop() {
	logging.Default().Info("Stale visit monitor stopping")
	close(m.stopCh)
	<-m.doneCh
	logging.Default().Info("Stale visit monitor stopped")
}

func (m *StaleVisitMonitor) run(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.scan(ctx); err != nil {
				logging.Default().Error("Stale visit scan failed (will retry next interval)",
					"error", err.Error())
			}

		case <-m.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Stale visit monitor context cancelled")
			return
		}
	}
}

// scan reports every processing visit older than the threshold that has not
// been reported before. Visits that left processing are dropped from the
// reported set.
func (m *StaleVisitMonitor) scan(ctx context.Context) error {
	now := m.now()
	visits, err := m.repo.Visit().ListProcessingBefore(ctx, now.Add(-m.threshold))
	if err != nil {
		return goerr.Wrap(err, "failed to list processing visits")
	}

	m.forgetFinalized(visits)

	for _, visit := range visits {
		if !m.markReported(visit.ID) {
			continue
		}

		age := now.Sub(visit.CreatedAt)
		logging.Default().Warn("Visit stuck in processing",
			"visit_id", visit.ID,
			"patient_id", visit.PatientID,
			"age", age.String())

		for _, n := range m.notifiers {
			if err := n.NotifyStaleVisit(ctx, visit, age); err != nil {
				logging.Default().Error("Failed to notify stale visit",
					"visit_id", visit.ID,
					"error", err.Error())
			}
		}
	}

	return nil
}

func (m *StaleVisitMonitor) markReported(id model.VisitID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reported[id]; ok {
		return false
	}
	m.reported[id] = struct{}{}
	return true
}

// forgetFinalized drops reported IDs that are no longer stuck
func (m *StaleVisitMonitor) forgetFinalized(stuck []*model.Visit) {
	current := make(map[model.VisitID]struct{}, len(stuck))
	for _, v := range stuck {
		current[v.ID] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.reported {
		if _, ok := current[id]; !ok {
			delete(m.reported, id)
		}
	}
}
