// Package test provides a conformance test for kv.TraversingBucket implementations.
package test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/PolarWolf314/reclaim/internal/kv"
)

func TestBucket(t *testing.T, b kv.TraversingBucket) {
	ctx := context.Background()

	if _, err := b.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("Get missing: expected ErrKeyNotFound, got %v", err)
	}

	if err := b.Set(ctx, "alpha", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, "beta", []byte("two")); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, "alpha", []byte("uno")); err != nil {
		t.Fatal(err)
	}

	v, err := b.Get(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "uno" {
		t.Errorf("expected overwritten value, got %q", v)
	}

	found, err := b.Has(ctx, "beta")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Error("expected beta to exist")
	}

	keys := kv.KeysWithPrefix(ctx, b, "")
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "beta" {
		t.Errorf("unexpected keys: %v", keys)
	}
	if keys := kv.KeysWithPrefix(ctx, b, "be"); len(keys) != 1 || keys[0] != "beta" {
		t.Errorf("unexpected prefixed keys: %v", keys)
	}

	if err := kv.DeleteSlice(ctx, b, []string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete(ctx, "alpha"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}

	found, err = b.Has(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected alpha to be deleted")
	}
}
