// cmd/sanitize/sanitize.go
package sanitize

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/interaction"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/overwrite"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/progress"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sanitize"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// isInteractive is swapped in tests.
var isInteractive = interaction.IsInteractive

func NewSanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize <volume>",
		Short: "Overwrite the free space of a non-system volume",
		Long: `Overwrite the free space of a mounted, non-system volume with three passes
(zeros, ones, random) written through a scratch file at the volume root.

Existing files are left alone and the scratch file is removed afterwards.
The amount written per pass is bounded by overwrite.max_iterations blocks
of overwrite.block_size, so this is not a full-volume wipe.

Without --confirm an interactive terminal is asked to type the volume back;
a non-interactive run is refused.

Examples:
  eos-sanitizer sanitize /media/alice/USB
  eos-sanitizer sanitize E:\ --confirm`,
		Args: cobra.ExactArgs(1),
		RunE: eos.Wrap(runSanitize),
	}
	cmd.Flags().Bool("confirm", false, "Confirm the overwrite without prompting")
	return cmd
}

func runSanitize(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	log := otelzap.Ctx(rc.Ctx)
	id := args[0]

	a, err := app.FromConfig()
	if err != nil {
		return err
	}

	// ASSESS
	var target volumes.Descriptor
	confirmed, _ := cmd.Flags().GetBool("confirm")
	if !confirmed && isInteractive() {
		if _, err := a.Service.CheckSafety(rc, id); err != nil {
			return err
		}
		if target, err = a.Catalog.Lookup(rc, id); err != nil {
			return err
		}
		if confirmed, err = interaction.ConfirmSanitize(rc, cmd.InOrStdin(), target); err != nil {
			return err
		}
		if !confirmed {
			return eos_err.NewExpectedError(eos_err.NewUserCancelledError("sanitize " + id))
		}
	}

	// INTERVENE
	scratch := a.Engine.ScratchPath(id)
	eos.RegisterCleanup(rc.Ctx, func() error {
		if err := os.Remove(scratch); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})

	req := sanitize.Request{Identifier: id, Confirmed: confirmed}
	var res sanitize.Result
	if confirmed {
		if target.Identifier == "" {
			// a volume that is gone is reported by the service below
			target, _ = a.Catalog.Lookup(rc, id)
		}
		op := progress.NewOperation(rc.Ctx, "Overwriting free space on "+id, writeEstimate(a.Engine, target.CapacityBytes)).
			WithNote("Do not remove the volume until this finishes")
		op.Start()
		res = <-a.Service.Start(rc, req)
		op.Done(res.Err)
	} else {
		res.Outcome, res.Err = a.Service.Sanitize(rc, req)
	}
	if res.Err != nil {
		if errors.Is(res.Err, eos_err.ErrConfirmationRequired) {
			return eos_err.NewExpectedError(fmt.Errorf("%w: pass --confirm or run from a terminal", res.Err))
		}
		return res.Err
	}

	// EVALUATE
	log.Debug("Sanitize finished",
		zap.Int64("bytes_written", res.Outcome.BytesWritten),
		zap.String("journal_id", res.Outcome.JournalID))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Outcome.Summary)
	return err
}

// writeEstimate is how much the engine writes to a volume of this capacity.
func writeEstimate(e *overwrite.Engine, capacity uint64) string {
	perPass := int64(e.BlockSize()) * int64(e.Iterations(capacity))
	return units.BytesSize(float64(3*perPass)) + " across three passes"
}
