// pkg/disk_safety/journal.go

package disk_safety

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/google/uuid"
)

// ErrEntryNotFound is returned when no entry carries the requested id.
var ErrEntryNotFound = errors.New("journal entry not found")

// ErrEntryTampered is returned when an entry fails its checksum and would be rewritten.
var ErrEntryTampered = errors.New("journal entry checksum mismatch")

// JournalStorage manages sanitize journaling
type JournalStorage struct {
	mu       sync.RWMutex
	basePath string
}

// NewJournalStorage creates a journal rooted at basePath
func NewJournalStorage(basePath string) (*JournalStorage, error) {
	js := &JournalStorage{basePath: basePath}

	for _, dir := range []string{
		filepath.Join(basePath, ActiveDir),
		filepath.Join(basePath, ArchiveDir),
	} {
		if err := os.MkdirAll(dir, shared.FilePermOwnerRWX); err != nil {
			return nil, eos_err.NewFilesystemError("failed to create journal directory", fmt.Errorf("%s: %w", dir, err))
		}
	}

	return js, nil
}

// Dir returns the journal root.
func (js *JournalStorage) Dir() string { return js.basePath }

// Create opens an in-progress entry for target.
func (js *JournalStorage) Create(operationType string, target volumes.Descriptor, params map[string]any) (*JournalEntry, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	entry := &JournalEntry{
		ID:            uuid.New().String(),
		StartTime:     time.Now().UTC(),
		OperationType: operationType,
		Target:        target,
		Status:        StatusInProgress,
		User:          getCurrentUser(),
		Parameters:    params,
	}

	if err := js.save(entry); err != nil {
		return nil, fmt.Errorf("save journal entry: %w", err)
	}
	return entry, nil
}

// Load loads a journal entry by ID
func (js *JournalStorage) Load(id string) (*JournalEntry, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return js.load(id)
}

func (js *JournalStorage) load(id string) (*JournalEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q is not a journal id", ErrEntryNotFound, id)
	}
	for _, dir := range []string{ActiveDir, ArchiveDir} {
		data, err := os.ReadFile(filepath.Join(js.basePath, dir, id+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s entry: %w", dir, err)
		}
		var entry JournalEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal %s entry: %w", dir, err)
		}
		entry.Tampered = !js.Verify(&entry)
		return &entry, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// Complete marks the entry finished and archives it.
func (js *JournalStorage) Complete(id string, bytesWritten int64) error {
	return js.finish(id, StatusCompleted, bytesWritten, nil)
}

// Fail records opErr against the entry and archives it.
func (js *JournalStorage) Fail(id string, bytesWritten int64, opErr error) error {
	return js.finish(id, StatusFailed, bytesWritten, opErr)
}

func (js *JournalStorage) finish(id string, status OperationStatus, bytesWritten int64, opErr error) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	entry, err := js.load(id)
	if err != nil {
		return err
	}
	if entry.Status.Finished() {
		return fmt.Errorf("journal entry %s is already %s", id, entry.Status)
	}
	// re-saving would stamp a fresh checksum over the edit
	if entry.Tampered {
		return fmt.Errorf("%w: %s", ErrEntryTampered, id)
	}

	now := time.Now().UTC()
	entry.EndTime = &now
	entry.Status = status
	entry.BytesWritten = bytesWritten
	if opErr != nil {
		entry.Error = opErr.Error()
		entry.ErrorKind = eos_err.KindName(opErr)
	}

	if err := js.save(entry); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(js.basePath, ActiveDir, id+".json")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive entry %s: %w", id, err)
	}
	return nil
}

// ListActive returns entries that never reached a terminal state, oldest first.
// Anything here after the process exits is an interrupted sanitize.
func (js *JournalStorage) ListActive() ([]*JournalEntry, error) {
	return js.list(ActiveDir)
}

// ListArchived returns finished entries, newest first.
func (js *JournalStorage) ListArchived() ([]*JournalEntry, error) {
	entries, err := js.list(ArchiveDir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime.After(entries[j].StartTime)
	})
	return entries, nil
}

func (js *JournalStorage) list(dir string) ([]*JournalEntry, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	files, err := os.ReadDir(filepath.Join(js.basePath, dir))
	if err != nil {
		return nil, fmt.Errorf("read %s directory: %w", dir, err)
	}

	var out []*JournalEntry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		entry, err := js.load(strings.TrimSuffix(f.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// Cleanup removes archived entries older than maxAge and reports how many went.
func (js *JournalStorage) Cleanup(maxAge time.Duration) (int, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	archiveDir := filepath.Join(js.basePath, ArchiveDir)
	files, err := os.ReadDir(archiveDir)
	if err != nil {
		return 0, fmt.Errorf("read archive directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		info, err := f.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(archiveDir, f.Name())); err == nil {
			cleaned++
		}
	}
	return cleaned, nil
}

// Verify reports whether an entry's checksum still matches its content.
func (js *JournalStorage) Verify(entry *JournalEntry) bool {
	return entry.Checksum == checksum(entry)
}

// save persists entry into the directory matching its status.
func (js *JournalStorage) save(entry *JournalEntry) error {
	dir := ActiveDir
	if entry.Status.Finished() {
		dir = ArchiveDir
	}

	entry.Checksum = checksum(entry)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	path := filepath.Join(js.basePath, dir, entry.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, shared.FilePermOwnerReadWrite); err != nil {
		return fmt.Errorf("write entry file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit entry file: %w", err)
	}
	return nil
}

// checksum covers the fields an auditor relies on.
func checksum(entry *JournalEntry) string {
	end := ""
	if entry.EndTime != nil {
		end = entry.EndTime.Format(time.RFC3339Nano)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		entry.ID,
		entry.OperationType,
		entry.Target.Identifier,
		entry.StartTime.Format(time.RFC3339Nano),
		end,
		string(entry.Status),
		fmt.Sprint(entry.BytesWritten),
		entry.Error,
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}

// getCurrentUser gets the current system user
func getCurrentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("USERNAME"); user != "" {
		return user
	}
	return "unknown"
}
