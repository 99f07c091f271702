package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is an in-process cache with a bounded entry count. It is the
// default when no cache path is configured.
type LRUStore struct {
	entries *lru.Cache[Fingerprint, []byte]
}

func NewLRUStore(size int) (*LRUStore, error) {
	if size <= 0 {
		size = 512
	}
	entries, err := lru.New[Fingerprint, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUStore{entries: entries}, nil
}

func (s *LRUStore) Get(_ context.Context, fp Fingerprint) ([]byte, bool, error) {
	payload, ok := s.entries.Get(fp)
	return payload, ok, nil
}

func (s *LRUStore) Put(_ context.Context, fp Fingerprint, payload []byte) error {
	// Copy so callers can reuse their buffer.
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.entries.Add(fp, buf)
	return nil
}

func (s *LRUStore) Close() error { return nil }
