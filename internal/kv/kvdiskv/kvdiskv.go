// Package kvdiskv wraps diskv to a standard interface for a key-value store.
package kvdiskv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/PolarWolf314/reclaim/internal/kv"

	"github.com/peterbourgon/diskv/v3"
)

// KVDiskv wraps a diskv object to implement an on-disk key-value store.
type KVDiskv struct {
	diskv *diskv.Diskv
}

func NewBucket(dv *diskv.Diskv) *KVDiskv {
	return &KVDiskv{diskv: dv}
}

// Option configures a bucket created with New.
type Option func(*diskv.Options)

// WithCache enables diskv's in-process read cache of up to max bytes.
// A cached bucket must be the only writer to its directory: values changed
// by another process are not seen until they are evicted.
func WithCache(max uint64) Option {
	return func(o *diskv.Options) {
		o.CacheSizeMax = max
	}
}

// New creates a flat diskv bucket at path. Writes go through a sibling
// temporary directory and are renamed into place, so readers never see
// partial values. Reads go to disk unless WithCache is given.
func New(path string, opts ...Option) *KVDiskv {
	flatTransform := func(s string) []string { return []string{} }
	o := diskv.Options{
		BasePath:  path,
		TempDir:   filepath.Clean(path) + ".tmp",
		Transform: flatTransform,
		FilePerm:  0600,
		PathPerm:  0700,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewBucket(diskv.New(o))
}

func (s *KVDiskv) Get(_ context.Context, k string) ([]byte, error) {
	v, err := s.diskv.Read(k)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", kv.ErrKeyNotFound, k)
	}
	return v, err
}

func (s *KVDiskv) Set(_ context.Context, k string, v []byte) error {
	return s.diskv.Write(k, v)
}

func (s *KVDiskv) Has(_ context.Context, k string) (bool, error) {
	return s.diskv.Has(k), nil
}

func (s *KVDiskv) Delete(_ context.Context, k string) error {
	err := s.diskv.Erase(k)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *KVDiskv) Keys(cancel <-chan struct{}) <-chan string {
	return s.diskv.Keys(cancel)
}
