// pkg/eos_cli/wrap.go

package eos_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// RunFunc is the shape of every command body.
type RunFunc func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap ensures panic recovery, telemetry, logging, and signal-driven cancellation.
func Wrap(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}

		handler := NewSignalHandler(parent)
		defer handler.Stop()

		rc := eos_io.NewContext(handler.Context(), cmd.Name())
		defer rc.End(&err)

		defer rc.HandlePanic(&err)

		eos_io.LogRuntimeExecutionContext(rc)

		err = fn(rc, cmd, args)
		if err != nil && !eos_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
