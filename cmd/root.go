/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/cmd/check"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/cmd/list"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/cmd/read"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/cmd/sanitize"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/cmd/serve"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/config"
	eos "github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_cli"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_err"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/eos_io"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   shared.AppID,
		Short: "Overwrite the free space of removable volumes",
		Long: `eos-sanitizer overwrites the unused space of a mounted, non-system volume
with three passes (zeros, ones, random) written through a scratch file.

It never touches existing files and refuses the volume the running
operating system lives on.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
		RunE: eos.Wrap(func(rc *eos_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			rc.Log.Info("No subcommand provided", zap.String("command", cmd.Use))
			return cmd.Help()
		}),
	}

	root.PersistentFlags().String("config", "", "Path to a config file (default: XDG config dir, then /etc/eos-sanitizer)")
	root.PersistentFlags().String("log-level", "", "Console log level: debug, info, warn or error")

	root.AddCommand(
		list.NewListCmd(),
		check.NewCheckCmd(),
		sanitize.NewSanitizeCmd(),
		read.NewReadCmd(),
		serve.NewServeCmd(),
	)
	return root
}

// loadConfig resolves the configuration once per invocation and applies the
// parts that affect the whole process.
func loadConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := cli.BindFlagsToViper(cmd.Flags(), v, map[string]string{
		"log-level": "log_level",
		"listen":    "api.listen",
	}); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return err
	}
	app.SetConfig(cfg)
	logger.SetLevel(cfg.LogLevel)

	return telemetry.Init(shared.AppID, telemetry.Options{
		Enabled: cfg.Telemetry.Enabled,
		Path:    cfg.Telemetry.Path,
	})
}

// Execute runs the command tree and returns the process exit status.
func Execute() int {
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to flush logs: %v\n", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.L().Warn("Failed to flush telemetry", zap.Error(err))
		}
	}()

	err := NewRootCmd().Execute()
	if err == nil {
		return 0
	}

	if eos_err.IsExpectedUserError(err) {
		logger.L().Warn("CLI completed with user error", zap.Error(err))
	} else {
		logger.L().Error("CLI execution error", zap.Error(err))
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return eos_err.GetExitCode(err)
}
