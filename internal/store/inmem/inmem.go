// Package inmem implements an in-memory recovery store.
package inmem

import (
	"github.com/PolarWolf314/reclaim/internal/kv/kvmap"
	"github.com/PolarWolf314/reclaim/internal/store/kv"
)

// InMem is an in-memory recovery store.
type InMem struct {
	*kv.KV
}

func New() *InMem {
	return &InMem{KV: kv.New(kvmap.NewBucket())}
}
