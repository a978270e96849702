package memory

import (
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
)

// ErrNotFound is returned when the requested record does not exist
var ErrNotFound = interfaces.ErrNotFound

// Memory is an in-process repository for development and tests
type Memory struct {
	visit     *visitRepository
	bpReading *bpReadingRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		visit:     newVisitRepository(),
		bpReading: newBPReadingRepository(),
	}
}

func (m *Memory) Visit() interfaces.VisitRepository {
	return m.visit
}

func (m *Memory) BPReading() interfaces.BPReadingRepository {
	return m.bpReading
}

func (m *Memory) Close() error {
	return nil
}
