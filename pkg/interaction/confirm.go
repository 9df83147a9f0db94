// pkg/interaction/confirm.go

package interaction

import (
	"bufio"
	"fmt"
	"io"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	units "github.com/docker/go-units"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ConfirmSanitize describes target and asks the operator to type its
// identifier back. Only an exact match confirms; anything else, including
// "yes", declines.
func ConfirmSanitize(rc *eos_io.RuntimeContext, in io.Reader, target volumes.Descriptor) (bool, error) {
	log := otelzap.Ctx(rc.Ctx)

	label := target.Label
	if label == "" {
		label = "(no label)"
	}
	log.Warn("About to overwrite free space on volume",
		zap.String("volume", target.Identifier),
		zap.String("label", label),
		zap.String("filesystem", target.FilesystemKind),
		zap.String("size", units.BytesSize(float64(target.CapacityBytes))),
		zap.String("free", units.BytesSize(float64(target.FreeBytes))))

	answer, err := ReadLine(rc.Ctx, bufio.NewReader(in),
		fmt.Sprintf("Type %q to confirm sanitization", target.Identifier))
	if err != nil {
		return false, err
	}
	if answer != target.Identifier {
		log.Info("Confirmation declined", zap.String("volume", target.Identifier))
		return false, nil
	}
	return true, nil
}
