// cmd/read/probe.go
package read

import (
	"fmt"

	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sysinfo"
	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Confirm the sanitizer can run on this host",
		Args:  cobra.NoArgs,
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), sysinfo.DiagnosticProbe())
			return err
		}),
	}
}
