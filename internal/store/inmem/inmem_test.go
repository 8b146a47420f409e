package inmem

import (
	"testing"

	"github.com/PolarWolf314/reclaim/internal/store"
	"github.com/PolarWolf314/reclaim/internal/store/test"
)

func TestInMemStorage(t *testing.T) {
	test.TestSecretStorage(t, func() store.Store { return New() })
}
