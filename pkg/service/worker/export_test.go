package worker

import (
	"context"
	"time"
)

// ScanForTest runs a single scan at the given time
func (m *StaleVisitMonitor) ScanForTest(ctx context.Context, now time.Time) error {
	m.now = func() time.Time { return now }
	return m.scan(ctx)
}

var StaleVisitText = staleVisitText

// ReportedCountForTest returns the size of the reported set
func (m *StaleVisitMonitor) ReportedCountForTest() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reported)
}
