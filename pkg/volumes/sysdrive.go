// pkg/volumes/sysdrive.go

package volumes

import (
	"fmt"
	"strings"
)

// systemDriveRoot returns the drive root holding the Windows directory,
// e.g. `C:\` for `C:\Windows`.
func systemDriveRoot(windowsDir string) (string, error) {
	if len(windowsDir) < 2 || windowsDir[1] != ':' {
		return "", fmt.Errorf("windows directory %q has no drive letter", windowsDir)
	}
	letter := windowsDir[0] | 0x20
	if letter < 'a' || letter > 'z' {
		return "", fmt.Errorf("windows directory %q has no drive letter", windowsDir)
	}
	return strings.ToUpper(windowsDir[:1]) + `:\`, nil
}

// markSystemDrive flags the drive whose root is sysRoot. The system drive
// is always mounted, so failing to find it means the listing is incomplete.
func markSystemDrive(vols []Descriptor, sysRoot string) error {
	found := false
	for i := range vols {
		vols[i].IsSystem = strings.EqualFold(vols[i].Identifier, sysRoot)
		found = found || vols[i].IsSystem
	}
	if !found {
		return fmt.Errorf("system drive %s is not among the logical drives", sysRoot)
	}
	return nil
}
