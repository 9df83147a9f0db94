// cmd/read/specs.go
package read

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/output"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sysinfo"
	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newSpecsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "specs",
		Aliases: []string{"system"},
		Short:   "Show hardware and OS details of this host",
		Args:    cobra.NoArgs,
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if !output.ValidFormat(format) {
				return eos_err.NewExpectedError(fmt.Errorf("unknown format %q (want table, json or yaml)", format))
			}

			specs, err := sysinfo.CollectSpecs(rc.Ctx)
			if err != nil {
				return err
			}
			for _, w := range specs.Warnings {
				otelzap.Ctx(rc.Ctx).Warn("Some system details are unavailable", zap.String("detail", w))
			}

			if format != output.FormatTable {
				return output.Structured(cmd.OutOrStdout(), format, specs)
			}
			return output.KeyValueTable(cmd.OutOrStdout(), specRows(specs))
		}),
	}
	cmd.Flags().StringP("format", "o", output.FormatTable, "Output format: table, json or yaml")
	return cmd
}

func specRows(s *sysinfo.SystemSpecs) [][2]string {
	rows := [][2]string{
		{"Hostname", s.Hostname},
		{"OS", strings.TrimSpace(s.Platform + " " + s.OSVersion)},
		{"Kernel", s.Kernel},
		{"Architecture", s.Arch},
		{"CPU", s.CPUModel},
		{"Cores / threads", strconv.Itoa(s.CPUCores) + " / " + strconv.Itoa(s.CPUThreads)},
		{"Memory", units.BytesSize(float64(s.MemoryUsed)) + " used of " + units.BytesSize(float64(s.MemoryTotal))},
		{"Uptime", (time.Duration(s.UptimeSeconds) * time.Second).String()},
	}
	for _, d := range s.Disks {
		rows = append(rows, [2]string{"Disk", d})
	}
	for _, n := range s.Interfaces {
		rows = append(rows, [2]string{"Interface", n})
	}
	if b := s.Battery; b != nil {
		v := strconv.Itoa(b.Percent) + "%"
		if b.Status != "" {
			v += ", " + strings.ToLower(b.Status)
		}
		if b.CycleCount > 0 {
			v += ", " + strconv.Itoa(b.CycleCount) + " cycles"
		}
		rows = append(rows, [2]string{"Battery", v})
	}
	for _, g := range s.GPUs {
		rows = append(rows, [2]string{"GPU", g.String()})
	}
	return rows
}
