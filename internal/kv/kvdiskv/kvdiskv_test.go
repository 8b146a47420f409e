package kvdiskv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/reclaim/internal/kv/test"
)

func TestKVDiskv(t *testing.T) {
	test.TestBucket(t, New(filepath.Join(t.TempDir(), "bucket")))
}

func TestKVDiskvFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bucket")
	b := New(path)

	if err := b.Set(context.Background(), "secret", []byte("value")); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(path, "secret"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}
}

func TestKVDiskvSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bucket")
	a, b := New(path), New(path)

	if err := a.Set(ctx, "default", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if v, err := b.Get(ctx, "default"); err != nil || string(v) != "first" {
		t.Fatalf("expected first, got %q, %v", v, err)
	}

	if err := a.Set(ctx, "default", []byte("second")); err != nil {
		t.Fatal(err)
	}
	if v, err := b.Get(ctx, "default"); err != nil || string(v) != "second" {
		t.Errorf("expected second, got %q, %v", v, err)
	}

	if err := a.Delete(ctx, "default"); err != nil {
		t.Fatal(err)
	}
	if found, _ := b.Has(ctx, "default"); found {
		t.Error("expected deleted key to be gone for the other bucket")
	}
}

func TestKVDiskvWithCache(t *testing.T) {
	test.TestBucket(t, New(filepath.Join(t.TempDir(), "bucket"), WithCache(1024)))
}
