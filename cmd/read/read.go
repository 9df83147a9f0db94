// cmd/read/read.go
/*
Copyright © 2024 Henry Oliver henry@cybermonkey.net.au
*/

package read

import (
	"github.com/spf13/cobra"
)

// NewReadCmd represents the base read command
func NewReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read information about this host",
	}
	cmd.AddCommand(newProbeCmd(), newSpecsCmd())
	return cmd
}
