package synthesis

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Service turns a visit transcript into a candidate SOAP note
type Service interface {
	// Synthesize makes at most one outbound LLM call. The returned candidate
	// is the decoded JSON object and must be passed through
	// model.NormalizeNote before use.
	Synthesize(ctx context.Context, transcript string) (map[string]any, error)
}

var (
	// ErrUnavailable indicates the LLM call failed, timed out or returned nothing
	ErrUnavailable = goerr.New("note synthesis unavailable")

	// ErrMalformed indicates the LLM returned text that is not a JSON object
	ErrMalformed = goerr.New("note synthesis returned malformed output")
)

const (
	// MinTranscriptLength is the trimmed length below which no LLM call is made
	MinTranscriptLength = 10

	DefaultTimeout = 60 * time.Second
)
