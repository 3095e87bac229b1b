package storage

import (
	"context"
	"io"
	"strings"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore keeps images in process memory, served under URLPrefix.
type MemoryStore struct {
	URLPrefix string
	maxSize   int64

	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStore(urlPrefix string, maxSize int64) *MemoryStore {
	return &MemoryStore{
		URLPrefix: strings.TrimRight(urlPrefix, "/") + "/",
		maxSize:   maxSize,
		objects:   make(map[string]object),
	}
}

func (s *MemoryStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := readLimited(r, s.maxSize)
	if err != nil {
		return "", err
	}
	key := newKey("", name)

	s.mu.Lock()
	s.objects[key] = object{data: data, contentType: contentType}
	s.mu.Unlock()

	return s.URLPrefix + key, nil
}

func (s *MemoryStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}
