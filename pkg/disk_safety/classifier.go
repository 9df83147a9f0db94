// pkg/disk_safety/classifier.go

package disk_safety

import (
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Catalog is the part of volumes.Catalog the classifier needs.
type Catalog interface {
	Lookup(rc *eos_io.RuntimeContext, identifier string) (volumes.Descriptor, error)
}

// Classify is the per-descriptor gate: a system volume is never eligible.
func Classify(d volumes.Descriptor) error {
	if d.IsSystem {
		return eos_err.SystemVolumeProtected(d.Identifier)
	}
	return nil
}

// CheckSafety reports whether identifier names a volume that may be
// sanitized, judged against a fresh enumeration. It has no side effects.
func CheckSafety(rc *eos_io.RuntimeContext, catalog Catalog, identifier string) (bool, error) {
	logger := otelzap.Ctx(rc.Ctx)

	d, err := catalog.Lookup(rc, identifier)
	if err != nil {
		return false, err
	}
	if err := Classify(d); err != nil {
		logger.Info("Volume is not eligible for sanitization",
			zap.String("identifier", identifier),
			zap.Bool("is_system", d.IsSystem))
		return false, err
	}

	logger.Debug("Volume is eligible for sanitization",
		zap.String("identifier", identifier),
		zap.String("label", d.Label))
	return true, nil
}
