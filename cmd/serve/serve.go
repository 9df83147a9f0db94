// cmd/serve/serve.go
package serve

import (
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/cli"
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// NewServeCmd runs the HTTP API a local frontend talks to.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sanitizer API to a local frontend",
		Long: `Serve the JSON API under /api/v1 until interrupted.

Sanitize requests run in the background; POST /api/v1/sanitize answers with a
task that can be polled at /api/v1/tasks/{id}, or pass ?wait=true to block.
The API has no authentication; keep it on a loopback address. Requests whose
Host is not the listen address or a loopback name are refused, as are requests
from a non-loopback Origin and writes without an application/json body.`,
		Args: cobra.NoArgs,
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			a, err := app.FromConfig()
			if err != nil {
				return err
			}
			otelzap.Ctx(rc.Ctx).Info("Starting API",
				zap.String("listen", a.Config.API.Listen),
				zap.Bool("journal", a.Journal != nil))
			return a.Server().ListenAndServe(rc.Ctx, a.Config.API.Listen)
		}),
	}
	cli.AddStringFlag(cmd, "listen", "l", shared.DefaultListenAddr, "Address to listen on (api.listen)", false)
	return cmd
}
