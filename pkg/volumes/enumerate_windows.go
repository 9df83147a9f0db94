//go:build windows

// pkg/volumes/enumerate_windows.go

package volumes

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

type driveEnumerator struct{}

// NewPlatformEnumerator returns the drive-letter enumerator for this host.
func NewPlatformEnumerator() VolumeEnumerator {
	return driveEnumerator{}
}

func (driveEnumerator) Enumerate(ctx context.Context) ([]Descriptor, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("GetLogicalDrives: %w", err)
	}

	dir, err := windows.GetWindowsDirectory()
	if err != nil {
		return nil, fmt.Errorf("GetWindowsDirectory: %w", err)
	}
	sysRoot, err := systemDriveRoot(dir)
	if err != nil {
		return nil, err
	}

	deg := &Degradation{}
	var out []Descriptor

	for i := 0; i < 26; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		root := string(rune('A'+i)) + `:\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		switch windows.GetDriveType(rootPtr) {
		case windows.DRIVE_UNKNOWN, windows.DRIVE_NO_ROOT_DIR:
			continue
		}

		d := Descriptor{Identifier: root}

		var (
			label  [windows.MAX_PATH + 1]uint16
			fsName [windows.MAX_PATH + 1]uint16
			serial uint32
			maxLen uint32
			flags  uint32
		)
		err = windows.GetVolumeInformation(rootPtr, &label[0], uint32(len(label)),
			&serial, &maxLen, &flags, &fsName[0], uint32(len(fsName)))
		switch {
		case errors.Is(err, windows.ERROR_NOT_READY):
			// empty card reader or optical drive
			continue
		case err != nil:
			deg.add(fmt.Errorf("%s: volume information: %w", root, err))
		default:
			d.Label = windows.UTF16ToString(label[:])
			d.FilesystemKind = windows.UTF16ToString(fsName[:])
			d.Serial = serial
		}

		var freeToCaller, total, totalFree uint64
		if err := windows.GetDiskFreeSpaceEx(rootPtr, &freeToCaller, &total, &totalFree); err != nil {
			deg.add(fmt.Errorf("%s: free space: %w", root, err))
		} else {
			d.CapacityBytes = total
			d.FreeBytes = freeToCaller
		}

		out = append(out, d)
	}

	if err := markSystemDrive(out, sysRoot); err != nil {
		return nil, err
	}
	return out, deg.orNil()
}
