// cmd/list/volumes.go
package list

import (
	"fmt"
	"io"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/output"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newVolumesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "volumes",
		Aliases: []string{"volume", "vols"},
		Short:   "List mounted volumes and whether each may be sanitized",
		Long: `List every mounted volume with its label, filesystem, size, free space and
serial. The volume the operating system runs from is marked SYSTEM and can
never be sanitized.

Examples:
  eos-sanitizer list volumes                 # Table
  eos-sanitizer list volumes --format json   # For scripts
  eos-sanitizer list volumes --watch         # Redraw when media is attached`,
		Args: cobra.NoArgs,
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			logger := otelzap.Ctx(rc.Ctx)

			format, _ := cmd.Flags().GetString("format")
			if !output.ValidFormat(format) {
				return eos_err.NewExpectedError(fmt.Errorf("unknown format %q (want table, json or yaml)", format))
			}
			watch, _ := cmd.Flags().GetBool("watch")
			interval, _ := cmd.Flags().GetDuration("interval")

			a, err := app.FromConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if !watch {
				return renderVolumes(rc, a, w, format)
			}

			roots := volumes.MountRoots()
			logger.Info("Watching for volume changes; press Ctrl-C to stop", zap.Strings("roots", roots))
			return volumes.Watch(rc.Ctx, roots, 500*time.Millisecond, interval, func() {
				if err := renderVolumes(rc, a, w, format); err != nil {
					logger.Warn("Failed to list volumes", zap.Error(err))
				}
			})
		}),
	}

	cmd.Flags().StringP("format", "o", output.FormatTable, "Output format: table, json or yaml")
	cmd.Flags().Bool("watch", false, "Keep running and redraw when volumes change")
	cmd.Flags().Duration("interval", 5*time.Second, "With --watch, also redraw this often (0 disables)")
	return cmd
}

func renderVolumes(rc *eos_io.RuntimeContext, a *app.App, w io.Writer, format string) error {
	vols, err := a.Service.Volumes(rc)
	if err != nil {
		return err
	}
	otelzap.Ctx(rc.Ctx).Debug("Volumes enumerated", zap.Int("count", len(vols)))

	if format != output.FormatTable {
		return output.Structured(w, format, vols)
	}
	if len(vols) == 0 {
		_, err := fmt.Fprintln(w, "No mounted volumes found.")
		return err
	}
	return output.VolumeTable(w, vols)
}
