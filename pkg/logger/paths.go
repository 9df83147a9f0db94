/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/shared"
)

// PlatformLogPaths returns candidate log paths in order of priority for the platform.
func PlatformLogPaths() []string {
	if override := os.Getenv("EOS_SANITIZER_LOG_FILE"); override != "" {
		return []string{override}
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{
			shared.StatePath("eos-sanitizer.log"),
			shared.LogFilePWD,
			shared.LogFileTmp,
		}
	case "linux":
		return []string{
			shared.LogFile,                        // best if writable (root)
			shared.StatePath("eos-sanitizer.log"), // ~/.local/state/eos-sanitizer/
			shared.LogFilePWD,
			shared.LogFileTmp,
		}
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramData"), shared.AppID, "eos-sanitizer.log"),
			filepath.Join(os.Getenv("LOCALAPPDATA"), shared.AppID, "eos-sanitizer.log"),
			".\\eos-sanitizer.log",
		}
	default:
		return []string{shared.LogFilePWD}
	}
}
