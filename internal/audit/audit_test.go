package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLog_CreatesFile(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "reclaim")
	l := New(dataDir, "user-1", "device-1")

	l.Log(Entry{Operation: OpCreate, KeyID: "key-1", SecretsCount: 3})

	info, err := os.Stat(filepath.Join(dataDir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("Audit log file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	l := New(t.TempDir(), "user-1", "device-1")

	l.Log(Entry{Operation: OpCreate, KeyID: "key-1", Passphrase: true, SecretsCount: 3})
	l.Log(Entry{Operation: OpRestore, KeyID: "key-1", SecretsCount: 3, UpdatedCount: 1})
	l.Log(Entry{Operation: OpDelete, KeyID: "key-1", DeviceID: "device-2"})

	entries, err := ReadEntries(l.Path)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	ops := []string{OpCreate, OpRestore, OpDelete}
	for i, op := range ops {
		if entries[i].Operation != op {
			t.Errorf("Entry %d: expected op %q, got %q", i, op, entries[i].Operation)
		}
		if entries[i].UserID != "user-1" {
			t.Errorf("Entry %d: expected user-1, got %q", i, entries[i].UserID)
		}
	}
	if entries[0].DeviceID != "device-1" || entries[2].DeviceID != "device-2" {
		t.Errorf("Unexpected device IDs: %q, %q", entries[0].DeviceID, entries[2].DeviceID)
	}
	if !entries[0].Passphrase || entries[1].UpdatedCount != 1 {
		t.Errorf("Optional fields lost: %+v", entries[:2])
	}
}

func TestLog_TimestampFormat(t *testing.T) {
	l := New(t.TempDir(), "u", "d")
	l.Log(Entry{Operation: OpImport})

	entries, err := ReadEntries(l.Path)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadEntries = %v, %v", entries, err)
	}
	if _, err := time.Parse(timestampFormat, entries[0].Timestamp); err != nil {
		t.Errorf("Timestamp %q does not match format: %v", entries[0].Timestamp, err)
	}
	if !strings.HasSuffix(entries[0].Timestamp, "Z") {
		t.Errorf("Timestamp should be UTC, got %q", entries[0].Timestamp)
	}
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	l := New(t.TempDir(), "u", "d")
	l.Log(Entry{Operation: OpImport, Secrets: []string{"m.cross_signing.master"}})

	data, err := os.ReadFile(l.Path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Entry is not valid JSON: %v", err)
	}
	for _, field := range []string{"key_id", "backend", "passphrase", "updated_count", "invalid_count"} {
		if _, ok := raw[field]; ok {
			t.Errorf("Expected %s to be omitted", field)
		}
	}
	if _, ok := raw["secrets"]; !ok {
		t.Error("Expected secrets to be present")
	}
}

func TestLog_NilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Log(Entry{Operation: OpCreate})

	(&Logger{}).Log(Entry{Operation: OpCreate})
}

func TestLog_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}

	// must not panic or fail
	New(filepath.Join(blocker, "sub"), "u", "d").Log(Entry{Operation: OpCreate})
}

func TestReadEntries_Missing(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil || entries != nil {
		t.Errorf("ReadEntries = %v, %v", entries, err)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"op":"create","user_id":"u"}
not json
{"op":"restore"}

{"op":"delete","key_id":"k"`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != OpCreate || entries[1].Operation != OpRestore {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestParseEntries_EmptyData(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil || len(entries) != 0 {
		t.Errorf("ParseEntries(nil) = %v, %v", entries, err)
	}
}
