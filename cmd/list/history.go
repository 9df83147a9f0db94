// cmd/list/history.go
package list

import (
	"errors"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/output"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type history struct {
	Active   []*disk_safety.JournalEntry `json:"active" yaml:"active"`
	Archived []*disk_safety.JournalEntry `json:"archived" yaml:"archived"`
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the sanitization journal",
		Long: `Show sanitizations recorded in the journal, newest first. Entries still
listed as in progress belong to runs that were interrupted. The CHECKSUM
column reads "mismatch" for entries edited after they were written.

Examples:
  eos-sanitizer list history
  eos-sanitizer list history --cleanup 720h   # Drop archived entries older than 30 days`,
		Args: cobra.NoArgs,
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			logger := otelzap.Ctx(rc.Ctx)

			format, _ := cmd.Flags().GetString("format")
			if !output.ValidFormat(format) {
				return eos_err.NewExpectedError(fmt.Errorf("unknown format %q (want table, json or yaml)", format))
			}
			cleanup, _ := cmd.Flags().GetDuration("cleanup")

			a, err := app.FromConfig()
			if err != nil {
				return err
			}
			if a.Journal == nil {
				return eos_err.NewExpectedError(errors.New("the journal is disabled (journal.enabled: false)"))
			}

			if cleanup > 0 {
				removed, err := a.Journal.Cleanup(cleanup)
				if err != nil {
					return err
				}
				logger.Info("Removed old journal entries", zap.Int("removed", removed), zap.Duration("older_than", cleanup))
			}

			var h history
			if h.Active, err = a.Journal.ListActive(); err != nil {
				return err
			}
			if h.Archived, err = a.Journal.ListArchived(); err != nil {
				return err
			}

			for _, e := range append(append([]*disk_safety.JournalEntry{}, h.Active...), h.Archived...) {
				if e.Tampered {
					logger.Warn("Journal entry does not match its checksum; it was edited after it was written",
						zap.String("id", e.ID), zap.String("volume", e.Target.Identifier))
				}
			}

			w := cmd.OutOrStdout()
			if format != output.FormatTable {
				return output.Structured(w, format, h)
			}
			if len(h.Active) > 0 {
				logger.Warn("Some sanitizations never finished", zap.Int("count", len(h.Active)))
				if err := output.HistoryTable(w, h.Active); err != nil {
					return err
				}
				fmt.Fprintln(w)
			}
			if len(h.Archived) == 0 {
				_, err := fmt.Fprintln(w, "No completed sanitizations recorded.")
				return err
			}
			return output.HistoryTable(w, h.Archived)
		}),
	}

	cmd.Flags().StringP("format", "o", output.FormatTable, "Output format: table, json or yaml")
	cmd.Flags().Duration("cleanup", 0, "Remove archived entries older than this before listing")
	return cmd
}
