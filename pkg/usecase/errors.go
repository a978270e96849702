package usecase

import (
	"errors"

	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/service/synthesis"
)

// Sentinel errors for use case layer
var (
	// ErrValidation is returned for malformed requests, before any write
	ErrValidation = errors.New("invalid request")

	// ErrStorageUnavailable is returned when the visit store or audio archive fails
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned when a visit does not exist
	ErrNotFound = interfaces.ErrNotFound

	// Synthesis errors never leave Capture; the visit is finalized as error instead
	ErrSynthesisUnavailable = synthesis.ErrUnavailable
	ErrSynthesisMalformed   = synthesis.ErrMalformed
)

// Context keys for error values
const (
	VisitIDKey   = "visit_id"
	PatientIDKey = "patient_id"
)
