package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestReadAllNonEmpty(t *testing.T) {
	data, err := ReadAllNonEmpty(strings.NewReader("secret"))
	if err != nil {
		t.Fatalf("ReadAllNonEmpty failed: %v", err)
	}
	if string(data) != "secret" {
		t.Errorf("Expected %q, got %q", "secret", data)
	}

	if _, err := ReadAllNonEmpty(strings.NewReader("")); !errors.Is(err, ErrNoInput) {
		t.Errorf("Expected ErrNoInput, got %v", err)
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "secret"); got != "secret" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := Plural(3, "secret"); got != "secrets" {
		t.Errorf("Plural(3) = %q", got)
	}
}
