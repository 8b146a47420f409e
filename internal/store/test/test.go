// Package test provides a conformance test for recovery store implementations.
package test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	kerrors "github.com/PolarWolf314/reclaim/internal/errors"
	"github.com/PolarWolf314/reclaim/internal/secrets"
	"github.com/PolarWolf314/reclaim/internal/store"
)

func newDescriptor(t *testing.T) (*secrets.StorageKeyDescriptor, []byte) {
	t.Helper()
	desc, key, _, err := secrets.CreateStorageKey("")
	if err != nil {
		t.Fatal(err)
	}
	return desc, key
}

func encrypt(t *testing.T, plaintext string, key []byte, name string) *secrets.EncryptedSecret {
	t.Helper()
	enc, err := secrets.EncryptSecret([]byte(plaintext), key, name)
	if err != nil {
		t.Fatal(err)
	}
	return enc
}

func sameBlob(a, b *secrets.EncryptedSecret) bool {
	return bytes.Equal(a.Ciphertext, b.Ciphertext) && bytes.Equal(a.IV, b.IV) && bytes.Equal(a.MAC, b.MAC)
}

// TestSecretStorage runs the store conformance suite against a fresh store.
// The store may already hold data from earlier runs but must have no default.
func TestSecretStorage(t *testing.T, newStorage func() store.Store) {
	s := newStorage()
	ctx := context.Background()

	if _, err := s.DefaultDescriptor(ctx); !errors.Is(err, kerrors.ErrDescriptorNotFound) {
		t.Fatalf("expected ErrDescriptorNotFound with no default, got %v", err)
	}

	first, firstKey := newDescriptor(t)
	second, secondKey := newDescriptor(t)

	if _, err := s.Descriptor(ctx, first.ID); !errors.Is(err, kerrors.ErrDescriptorNotFound) {
		t.Fatalf("expected ErrDescriptorNotFound for unknown descriptor, got %v", err)
	}

	enc := encrypt(t, "orphan", firstKey, "m.test")
	if err := s.PutEncryptedSecret(ctx, "m.test", first.ID, enc); !errors.Is(err, kerrors.ErrDescriptorNotFound) {
		t.Fatalf("expected ErrDescriptorNotFound storing under unknown descriptor, got %v", err)
	}

	t.Run("descriptors", func(t *testing.T) {
		if err := s.PutDescriptor(ctx, first, true); err != nil {
			t.Fatal(err)
		}
		if err := s.PutDescriptor(ctx, second, false); err != nil {
			t.Fatal(err)
		}

		def, err := s.DefaultDescriptor(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if def.ID != first.ID || !def.Default {
			t.Errorf("expected default %s, got %s (default=%v)", first.ID, def.ID, def.Default)
		}
		if !secrets.VerifyStorageKey(firstKey, def) {
			t.Error("stored descriptor no longer verifies its key")
		}

		got, err := s.Descriptor(ctx, second.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Default {
			t.Error("non-default descriptor reported as default")
		}
		got.Default = second.Default
		if !reflect.DeepEqual(got, second) {
			t.Errorf("descriptor mismatch: have %+v, want %+v", got, second)
		}
	})

	t.Run("secrets", func(t *testing.T) {
		blobs := map[string]*secrets.EncryptedSecret{
			"m.cross_signing.master":       encrypt(t, "one", firstKey, "m.cross_signing.master"),
			"m.cross_signing.self_signing": encrypt(t, "two", firstKey, "m.cross_signing.self_signing"),
			"weird/id with spaces":         encrypt(t, "three", firstKey, "weird/id with spaces"),
		}
		for id, blob := range blobs {
			if err := s.PutEncryptedSecret(ctx, id, first.ID, blob); err != nil {
				t.Fatalf("storing %s: %v", id, err)
			}
		}

		ids, err := s.SecretIDs(ctx, first.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"m.cross_signing.master", "m.cross_signing.self_signing", "weird/id with spaces"}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("secret IDs: have %v, want %v", ids, want)
		}

		for id, blob := range blobs {
			got, err := s.EncryptedSecret(ctx, id, first.ID)
			if err != nil {
				t.Fatalf("retrieving %s: %v", id, err)
			}
			if !sameBlob(got, blob) {
				t.Errorf("blob mismatch for %s", id)
			}
		}

		// blobs are scoped to their descriptor
		if _, err := s.EncryptedSecret(ctx, "m.cross_signing.master", second.ID); !errors.Is(err, kerrors.ErrSecretNotFound) {
			t.Errorf("expected ErrSecretNotFound under other descriptor, got %v", err)
		}
		ids, err = s.SecretIDs(ctx, second.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 0 {
			t.Errorf("expected no secrets under second descriptor, got %v", ids)
		}

		// overwrite
		replacement := encrypt(t, "uno", firstKey, "m.cross_signing.master")
		if err := s.PutEncryptedSecret(ctx, "m.cross_signing.master", first.ID, replacement); err != nil {
			t.Fatal(err)
		}
		got, err := s.EncryptedSecret(ctx, "m.cross_signing.master", first.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !sameBlob(got, replacement) {
			t.Error("blob was not replaced")
		}
		plain, err := secrets.DecryptSecret(got, firstKey, "m.cross_signing.master")
		if err != nil {
			t.Fatal(err)
		}
		if string(plain) != "uno" {
			t.Errorf("unexpected plaintext %q", plain)
		}

		if err := s.DeleteEncryptedSecret(ctx, "weird/id with spaces", first.ID); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteEncryptedSecret(ctx, "weird/id with spaces", first.ID); err != nil {
			t.Errorf("deleting a missing secret: %v", err)
		}
		if _, err := s.EncryptedSecret(ctx, "weird/id with spaces", first.ID); !errors.Is(err, kerrors.ErrSecretNotFound) {
			t.Errorf("expected ErrSecretNotFound after delete, got %v", err)
		}
	})

	t.Run("switch-default", func(t *testing.T) {
		if err := s.PutEncryptedSecret(ctx, "m.cross_signing.master", second.ID, encrypt(t, "new", secondKey, "m.cross_signing.master")); err != nil {
			t.Fatal(err)
		}
		if err := s.PutDescriptor(ctx, second, true); err != nil {
			t.Fatal(err)
		}

		def, err := s.DefaultDescriptor(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if def.ID != second.ID {
			t.Errorf("expected default %s, got %s", second.ID, def.ID)
		}

		old, err := s.Descriptor(ctx, first.ID)
		if err != nil {
			t.Fatalf("superseded descriptor should be retained: %v", err)
		}
		if old.Default {
			t.Error("superseded descriptor still reported as default")
		}
		if _, err := s.EncryptedSecret(ctx, "m.cross_signing.master", first.ID); err != nil {
			t.Errorf("superseded secrets should be retained: %v", err)
		}

		// re-putting the default without makeDefault keeps it the default
		if err := s.PutDescriptor(ctx, second, false); err != nil {
			t.Fatal(err)
		}
		if def, err := s.DefaultDescriptor(ctx); err != nil || def.ID != second.ID {
			t.Errorf("default changed by non-default put: %v, %v", def, err)
		}
	})

	t.Run("clear-default", func(t *testing.T) {
		if err := s.ClearDefault(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := s.DefaultDescriptor(ctx); !errors.Is(err, kerrors.ErrDescriptorNotFound) {
			t.Errorf("expected ErrDescriptorNotFound after clear, got %v", err)
		}
		if _, err := s.Descriptor(ctx, second.ID); err != nil {
			t.Errorf("descriptor should survive clearing the default: %v", err)
		}
		if err := s.ClearDefault(ctx); err != nil {
			t.Errorf("clearing an absent default: %v", err)
		}
	})
}

// TestSharedStorage checks that two handles on the same backing store see
// each other's default descriptor changes. a and b must start with no default.
func TestSharedStorage(t *testing.T, a, b store.Store) {
	ctx := context.Background()

	first, _ := newDescriptor(t)
	second, _ := newDescriptor(t)

	if err := a.PutDescriptor(ctx, first, true); err != nil {
		t.Fatal(err)
	}
	def, err := b.DefaultDescriptor(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != first.ID {
		t.Fatalf("expected default %s, got %s", first.ID, def.ID)
	}

	if err := a.PutDescriptor(ctx, second, true); err != nil {
		t.Fatal(err)
	}
	def, err = b.DefaultDescriptor(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != second.ID {
		t.Errorf("expected superseding default %s, got %s", second.ID, def.ID)
	}
	old, err := b.Descriptor(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Default {
		t.Error("superseded descriptor still reported as default")
	}

	if err := a.ClearDefault(ctx); err != nil {
		t.Fatal(err)
	}
	if def, err := b.DefaultDescriptor(ctx); !errors.Is(err, kerrors.ErrDescriptorNotFound) {
		t.Errorf("expected ErrDescriptorNotFound after clear, got %v, %v", def, err)
	}
}
