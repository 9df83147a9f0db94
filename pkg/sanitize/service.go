// pkg/sanitize/service.go

package sanitize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/overwrite"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Service is the single entry point for sanitize requests. Every request is
// judged against a fresh enumeration; nothing is cached between calls.
type Service struct {
	catalog Catalog
	engine  Overwriter
	journal Journal
	locks   keyedMutex
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithJournal records every attempt that reaches the overwrite stage.
func WithJournal(j Journal) ServiceOption {
	return func(s *Service) { s.journal = j }
}

func NewService(catalog Catalog, engine Overwriter, opts ...ServiceOption) *Service {
	s := &Service{catalog: catalog, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Volumes lists the currently mounted volumes.
func (s *Service) Volumes(rc *eos_io.RuntimeContext) ([]volumes.Descriptor, error) {
	return s.catalog.Enumerate(rc)
}

// CheckSafety reports whether identifier may be sanitized right now.
func (s *Service) CheckSafety(rc *eos_io.RuntimeContext, identifier string) (bool, error) {
	return disk_safety.CheckSafety(rc, s.catalog, identifier)
}

// Sanitize overwrites the free space of one non-system volume. The checks
// run in a fixed order and each one must pass before the next begins:
// confirmation, resolution, the system-volume guard, then path existence.
// Nothing is enumerated or touched on disk before confirmation.
func (s *Service) Sanitize(rc *eos_io.RuntimeContext, req Request) (*Outcome, error) {
	logger := otelzap.Ctx(rc.Ctx)
	start := time.Now()

	// ASSESS
	if !req.Confirmed {
		logger.Warn("Sanitize refused: not confirmed", zap.String("identifier", req.Identifier))
		return nil, eos_err.ConfirmationRequired(req.Identifier)
	}

	unlock := s.locks.Lock(req.Identifier)
	defer unlock()

	logger.Info("Resolving sanitize target", zap.String("identifier", req.Identifier))
	target, err := s.catalog.Lookup(rc, req.Identifier)
	if err != nil {
		return nil, err
	}

	if err := disk_safety.Classify(target); err != nil {
		logger.Warn("Sanitize refused: system volume", zap.String("identifier", target.Identifier))
		return nil, err
	}

	if _, err := os.Stat(target.Identifier); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Sanitize target vanished after enumeration", zap.String("identifier", target.Identifier))
		return nil, eos_err.VolumeNotFound(target.Identifier)
	}

	// INTERVENE
	journalID := s.openJournal(rc, target)
	logger.Info("Overwriting free space",
		zap.String("identifier", target.Identifier),
		zap.String("label", target.Label),
		zap.String("filesystem", target.FilesystemKind),
		zap.String("journal_id", journalID))

	written, err := s.engine.Overwrite(rc, target.Identifier, target.CapacityBytes)
	s.closeJournal(rc, journalID, written, err)
	if err != nil {
		logger.Error("Sanitize failed", zap.String("identifier", target.Identifier), zap.Error(err))
		return nil, err
	}

	// EVALUATE
	outcome := &Outcome{
		Identifier:   target.Identifier,
		Method:       overwrite.Method,
		Passes:       overwrite.Passes,
		BytesWritten: written,
		JournalID:    journalID,
		Summary:      Summarize(target.Identifier, written),
	}
	logger.Info("Sanitize completed",
		zap.String("identifier", target.Identifier),
		zap.Int64("bytes_written", written),
		zap.Duration("duration", time.Since(start)))

	return outcome, nil
}

// Start runs Sanitize in the background and delivers exactly one Result
// before closing the channel. The caller stays free to keep serving.
func (s *Service) Start(rc *eos_io.RuntimeContext, req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		var res Result
		defer func() {
			if r := recover(); r != nil {
				res = Result{Err: eos_err.NewPanicError(r)}
			}
			ch <- res
		}()
		res.Outcome, res.Err = s.Sanitize(rc, req)
	}()
	return ch
}

// Summarize produces the operator-facing description of a finished run.
func Summarize(identifier string, bytesWritten int64) string {
	return fmt.Sprintf("Sanitized %s with %s: %d MB written through a scratch file. "+
		"Only the filesystem blocks allocated to that file were overwritten; "+
		"existing files and the rest of the free space were not touched, so this is not a full-volume wipe.",
		identifier, overwrite.Method, bytesWritten/(1<<20))
}

func (s *Service) openJournal(rc *eos_io.RuntimeContext, target volumes.Descriptor) string {
	if s.journal == nil {
		return ""
	}
	entry, err := s.journal.Create(disk_safety.OperationSanitize, target, map[string]any{
		"method":     overwrite.Method,
		"passes":     overwrite.Passes,
		"block_size": s.engine.BlockSize(),
		"iterations": s.engine.Iterations(target.CapacityBytes),
	})
	if err != nil {
		otelzap.Ctx(rc.Ctx).Warn("Failed to open journal entry; continuing without it", zap.Error(err))
		return ""
	}
	return entry.ID
}

func (s *Service) closeJournal(rc *eos_io.RuntimeContext, id string, written int64, opErr error) {
	if s.journal == nil || id == "" {
		return
	}
	var err error
	if opErr != nil {
		err = s.journal.Fail(id, written, opErr)
	} else {
		err = s.journal.Complete(id, written)
	}
	if err != nil {
		otelzap.Ctx(rc.Ctx).Warn("Failed to close journal entry",
			zap.String("journal_id", id), zap.Error(err))
	}
}
