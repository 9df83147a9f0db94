package disk_safety

import (
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
)

const (
	ActiveDir  = "active"
	ArchiveDir = "archive"

	OperationSanitize = "sanitize"
)

// OperationStatus is the lifecycle state of a journaled operation.
type OperationStatus string

const (
	StatusPending    OperationStatus = "pending"
	StatusInProgress OperationStatus = "in_progress"
	StatusCompleted  OperationStatus = "completed"
	StatusFailed     OperationStatus = "failed"
)

// Finished reports whether s is terminal.
func (s OperationStatus) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JournalEntry records one sanitize attempt that reached the overwrite stage.
type JournalEntry struct {
	ID            string             `json:"id"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	OperationType string             `json:"operation_type"`
	Target        volumes.Descriptor `json:"target"`
	Status        OperationStatus    `json:"status"`
	User          string             `json:"user"`
	Parameters    map[string]any     `json:"parameters,omitempty"`
	BytesWritten  int64              `json:"bytes_written"`
	Error         string             `json:"error,omitempty"`
	ErrorKind     string             `json:"error_kind,omitempty"`
	Checksum      string             `json:"checksum"`

	// Tampered is set on load when Checksum no longer matches the content.
	Tampered bool `json:"tampered,omitempty"`
}
