package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Operations recorded in the audit log.
const (
	OpCreate  = "create"
	OpRestore = "restore"
	OpDelete  = "delete"
	OpImport  = "import"
)

const timestampFormat = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry. It never carries secret values.
type Entry struct {
	Timestamp string `json:"ts"`
	UserID    string `json:"user_id"`
	DeviceID  string `json:"device_id"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	KeyID         string   `json:"key_id,omitempty"`
	Backend       string   `json:"backend,omitempty"`
	Passphrase    bool     `json:"passphrase,omitempty"`     // For create.
	Secrets       []string `json:"secrets,omitempty"`        // IDs only.
	SecretsCount  int      `json:"secrets_count,omitempty"`  // For create/restore.
	UpdatedCount  int      `json:"updated_count,omitempty"`  // For restore.
	InvalidCount  int      `json:"invalid_count,omitempty"`  // For restore.
	SecretsKept   bool     `json:"secrets_kept,omitempty"`   // For delete.
	ImportedBytes int      `json:"imported_bytes,omitempty"` // For import.
}

// Logger appends entries for one account and device to a JSON Lines file.
type Logger struct {
	Path     string
	UserID   string
	DeviceID string
}

// New creates a Logger writing to <dataDir>/audit.jsonl.
func New(dataDir, userID, deviceID string) *Logger {
	return &Logger{
		Path:     filepath.Join(dataDir, "audit.jsonl"),
		UserID:   userID,
		DeviceID: deviceID,
	}
}

// Log appends entry. Failures are ignored; an operation must not fail
// because its audit record could not be written.
func (l *Logger) Log(entry Entry) {
	if l == nil || l.Path == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(timestampFormat)
	}
	if entry.UserID == "" {
		entry.UserID = l.UserID
	}
	if entry.DeviceID == "" {
		entry.DeviceID = l.DeviceID
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	if err = os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines, such as a partial final write, are skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
