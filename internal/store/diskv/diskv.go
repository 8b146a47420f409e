// Package diskv implements a diskv-backed recovery store.
package diskv

import (
	"github.com/PolarWolf314/reclaim/internal/kv/kvdiskv"
	"github.com/PolarWolf314/reclaim/internal/store/kv"
)

// Diskv is a recovery store kept in a directory on disk.
type Diskv struct {
	*kv.KV
}

func New(path string) *Diskv {
	return &Diskv{KV: kv.New(kvdiskv.New(path))}
}
