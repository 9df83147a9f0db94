// pkg/volumes/catalog.go

package volumes

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Catalog answers volume queries from a live enumeration. It caches nothing.
type Catalog struct {
	enumerator VolumeEnumerator
}

// NewCatalog returns a catalog over e, or over the platform enumerator when e is nil.
func NewCatalog(e VolumeEnumerator) *Catalog {
	if e == nil {
		e = NewPlatformEnumerator()
	}
	return &Catalog{enumerator: e}
}

// Enumerate lists every volume currently mounted, following Assess → Intervene → Evaluate.
func (c *Catalog) Enumerate(rc *eos_io.RuntimeContext) ([]Descriptor, error) {
	logger := otelzap.Ctx(rc.Ctx)
	start := time.Now()

	// ASSESS
	logger.Debug("Assessing mounted volumes", zap.String("platform", runtime.GOOS))

	// INTERVENE
	vols, err := c.enumerator.Enumerate(rc.Ctx)
	var degraded *Degradation
	if errors.As(err, &degraded) {
		logger.Warn("Some volume metadata could not be read; defaults were used",
			zap.Int("issues", countIssues(degraded)),
			zap.Error(degraded))
		err = nil
	}
	if err != nil {
		logger.Error("Volume enumeration failed", zap.Error(err))
		return nil, eos_err.EnumerationFailure(err)
	}

	if err := checkConsistency(vols); err != nil {
		logger.Error("Refusing inconsistent volume list", zap.Error(err))
		return nil, eos_err.EnumerationFailure(err)
	}

	// EVALUATE
	if len(vols) > 0 && !slices.ContainsFunc(vols, func(v Descriptor) bool { return v.IsSystem }) {
		logger.Warn("No volume was recognised as the system volume; the OS disk may be listed as an ordinary target",
			zap.Int("volume_count", len(vols)))
	}
	logger.Debug("Volume enumeration completed",
		zap.Int("volume_count", len(vols)),
		zap.Duration("duration", time.Since(start)))

	return vols, nil
}

// Lookup enumerates afresh and returns the volume whose identifier matches
// exactly, or a not-found error.
func (c *Catalog) Lookup(rc *eos_io.RuntimeContext, identifier string) (Descriptor, error) {
	vols, err := c.Enumerate(rc)
	if err != nil {
		return Descriptor{}, err
	}
	for _, v := range vols {
		if v.Identifier == identifier {
			return v, nil
		}
	}
	otelzap.Ctx(rc.Ctx).Debug("Volume not present", zap.String("identifier", identifier))
	return Descriptor{}, eos_err.VolumeNotFound(identifier)
}

// checkConsistency rejects results that would make the system-volume guard
// ambiguous: more than one system volume, or duplicate identifiers.
func checkConsistency(vols []Descriptor) error {
	seen := make(map[string]struct{}, len(vols))
	systems := 0
	for _, v := range vols {
		if v.Identifier == "" {
			return errors.New("enumerator returned a volume without an identifier")
		}
		if _, dup := seen[v.Identifier]; dup {
			return fmt.Errorf("enumerator returned %q twice", v.Identifier)
		}
		seen[v.Identifier] = struct{}{}
		if v.IsSystem {
			systems++
		}
	}
	if systems > 1 {
		return fmt.Errorf("enumerator flagged %d system volumes", systems)
	}
	return nil
}

func countIssues(d *Degradation) int {
	if d == nil || d.Errs == nil {
		return 0
	}
	return len(d.Errs.Errors)
}
