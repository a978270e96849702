package audio

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// Object is an archived payload held by the in-memory store
type Object struct {
	Data     []byte
	MimeType string
}

// MemoryStore keeps audio in process memory, for development and tests
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]Object),
	}
}

func (s *MemoryStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) > MaxPayloadSize {
		return "", goerr.New("audio payload too large", goerr.V("size", len(data)))
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uri := "memory://" + DefaultObjectPrefix + uuid.New().String()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[uri] = Object{Data: copied, MimeType: mimeType}

	return uri, nil
}

// Get returns the object stored under uri
func (s *MemoryStore) Get(uri string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[uri]
	return obj, ok
}
