// cmd/check/check.go
package check

import (
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/spf13/cobra"
)

// NewCheckCmd represents the 'check' command
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [command]",
		Short: "Check whether a volume may be sanitized",
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			return cmd.Help()
		}),
	}
	cmd.AddCommand(newSafetyCmd())
	return cmd
}
