package sanitize

import (
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
)

// Request asks for one volume to be sanitized. Confirmed must be set by the
// caller after the operator has explicitly agreed.
type Request struct {
	Identifier string `json:"identifier"`
	Confirmed  bool   `json:"confirmed"`
}

// Outcome describes a completed sanitization.
type Outcome struct {
	Identifier   string `json:"identifier"`
	Method       string `json:"method"`
	Passes       int    `json:"passes"`
	BytesWritten int64  `json:"bytes_written"`
	JournalID    string `json:"journal_id,omitempty"`
	Summary      string `json:"summary"`
}

// Result is delivered exactly once by Start.
type Result struct {
	Outcome *Outcome
	Err     error
}

// Catalog is the volume source the service resolves requests against.
type Catalog interface {
	disk_safety.Catalog
	Enumerate(rc *eos_io.RuntimeContext) ([]volumes.Descriptor, error)
}

// Overwriter performs the overwrite on a resolved volume path.
type Overwriter interface {
	Overwrite(rc *eos_io.RuntimeContext, volumePath string, capacityHint uint64) (int64, error)
	Iterations(capacityHint uint64) int
	BlockSize() int
}

// Journal records sanitize attempts that reach the overwrite stage.
type Journal interface {
	Create(operationType string, target volumes.Descriptor, params map[string]any) (*disk_safety.JournalEntry, error)
	Complete(id string, bytesWritten int64) error
	Fail(id string, bytesWritten int64, opErr error) error
}
