// pkg/volumes/serial.go

package volumes

import (
	"strconv"
	"strings"
)

// parseVolumeSerial decodes the 32-bit volume serial FAT, exFAT and NTFS
// expose as a filesystem UUID in "XXXX-XXXX" form. Any other UUID shape
// (ext4, btrfs, APFS, the 64-bit NTFS form) has no 32-bit serial and yields 0.
func parseVolumeSerial(id string) uint32 {
	if len(id) != 9 || id[4] != '-' {
		return 0
	}
	v, err := strconv.ParseUint(strings.Replace(id, "-", "", 1), 16, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}
