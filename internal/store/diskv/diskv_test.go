package diskv

import (
	"context"
	"testing"

	"github.com/PolarWolf314/reclaim/internal/secrets"
	"github.com/PolarWolf314/reclaim/internal/store"
	"github.com/PolarWolf314/reclaim/internal/store/test"
)

func TestDiskvStorage(t *testing.T) {
	test.TestSecretStorage(t, func() store.Store { return New(t.TempDir()) })
}

func TestDiskvReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()

	desc, _, _, err := secrets.CreateStorageKey("")
	if err != nil {
		t.Fatal(err)
	}
	if err = New(path).PutDescriptor(ctx, desc, true); err != nil {
		t.Fatal(err)
	}

	def, err := New(path).DefaultDescriptor(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != desc.ID {
		t.Errorf("expected %s after reopen, got %s", desc.ID, def.ID)
	}
}

func TestDiskvSharedPath(t *testing.T) {
	path := t.TempDir()
	test.TestSharedStorage(t, New(path), New(path))
}
