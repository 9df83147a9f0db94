package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/disk_safety"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	units "github.com/docker/go-units"
)

// VolumeTable renders the volume catalog.
func VolumeTable(w io.Writer, vols []volumes.Descriptor) error {
	if len(vols) == 0 {
		_, err := fmt.Fprintln(w, "No volumes found.")
		return err
	}

	t := NewTableTo(w).WithHeaders("VOLUME", "LABEL", "FILESYSTEM", "SIZE", "FREE", "SERIAL", "SYSTEM")
	for _, v := range vols {
		t.AddRow(
			v.Identifier,
			orDash(v.Label),
			orDash(v.FilesystemKind),
			size(v.CapacityBytes),
			size(v.FreeBytes),
			serial(v.Serial),
			yesNo(v.IsSystem),
		)
	}
	return t.Render()
}

// HistoryTable renders journal entries.
func HistoryTable(w io.Writer, entries []*disk_safety.JournalEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No sanitize history.")
		return err
	}

	t := NewTableTo(w).WithHeaders("ID", "STARTED", "VOLUME", "STATUS", "WRITTEN", "ERROR", "CHECKSUM")
	for _, e := range entries {
		t.AddRow(
			e.ID,
			e.StartTime.Local().Format("2006-01-02 15:04:05"),
			e.Target.Identifier,
			string(e.Status),
			units.BytesSize(float64(e.BytesWritten)),
			orDash(e.ErrorKind),
			checksumState(e.Tampered),
		)
	}
	return t.Render()
}

// KeyValueTable renders ordered key/value pairs.
func KeyValueTable(w io.Writer, pairs [][2]string) error {
	t := NewTableTo(w)
	for _, kv := range pairs {
		t.AddRow(kv[0]+":", kv[1])
	}
	return t.Render()
}

func size(b uint64) string {
	if b == 0 {
		return "-"
	}
	return units.BytesSize(float64(b))
}

func serial(s uint32) string {
	if s == 0 {
		return "-"
	}
	return fmt.Sprintf("%04X-%04X", s>>16, s&0xFFFF)
}

func yesNo(b bool) string {
	return strconv.FormatBool(b)
}

func checksumState(tampered bool) string {
	if tampered {
		return "mismatch"
	}
	return "ok"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
