package interfaces

import (
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNotFound is returned by repositories when the requested record does not exist
	ErrNotFound = goerr.New("not found")

	// ErrAlreadyFinalized is returned when a visit in a terminal status is updated again
	ErrAlreadyFinalized = goerr.New("visit already finalized")
)

// Repository defines the interface for data persistence. One instance is
// created at process start and shared by every component until Close.
type Repository interface {
	Visit() VisitRepository
	BPReading() BPReadingRepository

	Close() error
}
