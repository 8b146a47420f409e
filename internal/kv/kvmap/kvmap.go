// Package kvmap implements an in-memory key-value store backed by a Go map.
package kvmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/PolarWolf314/reclaim/internal/kv"
)

// KVMap is an in-memory key-value store backed by a Go map.
// Values are copied on the way in and out.
type KVMap struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewBucket() *KVMap {
	return &KVMap{m: make(map[string][]byte)}
}

func (s *KVMap) Get(_ context.Context, k string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kv.ErrKeyNotFound, k)
	}
	return append([]byte(nil), v...), nil
}

func (s *KVMap) Set(_ context.Context, k string, v []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = append([]byte(nil), v...)
	return nil
}

func (s *KVMap) Has(_ context.Context, k string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[k]
	return ok, nil
}

func (s *KVMap) Delete(_ context.Context, k string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
	return nil
}

// Keys returns a snapshot of the keys in this bucket.
// The snapshot is taken before the channel is returned, so callers may
// write to the bucket while ranging over the result.
func (s *KVMap) Keys(cancel <-chan struct{}) <-chan string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	r := make(chan string)
	go func() {
		defer close(r)
		for _, k := range keys {
			select {
			case <-cancel:
				return
			case r <- k:
			}
		}
	}()
	return r
}
