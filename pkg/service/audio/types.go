package audio

import (
	"context"
)

// Store archives recorded visit audio
type Store interface {
	// Put stores the payload under a new object name and returns its URI
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
}

const (
	// MaxPayloadSize is the largest accepted audio payload in bytes
	MaxPayloadSize = 50 << 20

	// DefaultObjectPrefix is prepended to generated object names
	DefaultObjectPrefix = "visits/"

	defaultMimeType = "application/octet-stream"
)
