// cmd/check/safety.go
package check

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newSafetyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "safety <volume>",
		Short: "Report whether a volume is eligible for sanitization",
		Long: `Resolve the volume against a fresh enumeration and report whether it may be
sanitized. Nothing is written. The exit status is non-zero when the volume
is the system volume or is not mounted.

Examples:
  eos-sanitizer check safety /media/alice/USB
  eos-sanitizer check safety E:\`,
		Args: cobra.ExactArgs(1),
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			id := args[0]

			a, err := app.FromConfig()
			if err != nil {
				return err
			}
			if _, err := a.Service.CheckSafety(rc, id); err != nil {
				return err
			}

			otelzap.Ctx(rc.Ctx).Info("Volume is safe to sanitize", zap.String("volume", id))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is safe to sanitize\n", id)
			return err
		}),
	}
}
