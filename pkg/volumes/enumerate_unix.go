//go:build linux || darwin || freebsd

// pkg/volumes/enumerate_unix.go

package volumes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"
)

const (
	byLabelDir = "/dev/disk/by-label"
	byUUIDDir  = "/dev/disk/by-uuid"
)

// mountEnumerator reads the mount table through gopsutil. The function
// fields exist so tests can substitute a fake mount table.
type mountEnumerator struct {
	partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, path string) (*disk.UsageStat, error)
	deviceID   func(path string) (uint64, error)
	anchors    []string
	labelDir   string
	uuidDir    string
	goos       string
}

// NewPlatformEnumerator returns the mount-table enumerator for this host.
func NewPlatformEnumerator() VolumeEnumerator {
	return &mountEnumerator{
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
		deviceID:   deviceID,
		anchors:    systemAnchors(),
		labelDir:   byLabelDir,
		uuidDir:    byUUIDDir,
		goos:       runtime.GOOS,
	}
}

func (m *mountEnumerator) Enumerate(ctx context.Context) ([]Descriptor, error) {
	parts, err := m.partitions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}

	labels := readDeviceLinks(m.labelDir)
	uuids := readDeviceLinks(m.uuidDir)

	deg := &Degradation{}
	byDevice := make(map[string]int)
	var out []Descriptor

	for _, p := range parts {
		if m.skipMount(p) {
			continue
		}

		d := Descriptor{
			Identifier:     p.Mountpoint,
			FilesystemKind: p.Fstype,
			IsSystem:       p.Mountpoint == "/",
		}

		usage, err := m.usage(ctx, p.Mountpoint)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// unmounted between reading the table and statting it
			continue
		case err != nil:
			deg.add(fmt.Errorf("%s: usage: %w", p.Mountpoint, err))
		default:
			d.CapacityBytes = usage.Total
			d.FreeBytes = usage.Free
		}

		dev := resolveDevice(p.Device)
		d.Label = labels[dev]
		if d.Label == "" && !d.IsSystem {
			d.Label = filepath.Base(p.Mountpoint)
		}
		if id, ok := uuids[dev]; ok {
			d.Serial = parseVolumeSerial(id)
		}

		if i, seen := byDevice[dev]; seen && dev != "" {
			// same device mounted twice; keep one entry, preferring "/"
			if d.IsSystem {
				out[i] = d
			}
			continue
		}
		byDevice[dev] = len(out)
		out = append(out, d)
	}

	if !slices.ContainsFunc(out, func(d Descriptor) bool { return d.IsSystem }) {
		m.markSystemByDevice(out)
	}
	return out, deg.orNil()
}

// systemAnchors are paths that sit on the OS volume. They locate it when "/"
// itself is missing from the physical mount list.
func systemAnchors() []string {
	anchors := []string{"/", "/etc", "/usr/bin"}
	if exe, err := os.Executable(); err == nil {
		anchors = append(anchors, exe)
	}
	return anchors
}

// markSystemByDevice flags the mount sharing a device with the first
// anchor that matches any mount.
func (m *mountEnumerator) markSystemByDevice(vols []Descriptor) {
	if m.deviceID == nil {
		return
	}
	devs := make([]uint64, len(vols))
	ok := make([]bool, len(vols))
	for i, v := range vols {
		if id, err := m.deviceID(v.Identifier); err == nil {
			devs[i], ok[i] = id, true
		}
	}
	for _, anchor := range m.anchors {
		id, err := m.deviceID(anchor)
		if err != nil {
			continue
		}
		for i := range vols {
			if ok[i] && devs[i] == id {
				vols[i].IsSystem = true
				return
			}
		}
	}
}

func deviceID(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Dev), nil //nolint:unconvert // int32 on darwin
}

// skipMount drops mounts that cannot hold a scratch file or that belong to
// the OS itself without being its root.
func (m *mountEnumerator) skipMount(p disk.PartitionStat) bool {
	if p.Mountpoint == "" {
		return true
	}
	if p.Mountpoint != "/" && slices.Contains(p.Opts, "ro") {
		return true
	}
	if p.Fstype == "squashfs" {
		return true
	}
	if m.goos == "darwin" && strings.HasPrefix(p.Mountpoint, "/System/Volumes/") {
		return true
	}
	return false
}

// readDeviceLinks maps resolved device paths to the link names found in a
// /dev/disk/by-* directory. A missing directory yields an empty map.
func readDeviceLinks(dir string) map[string]string {
	out := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		target, err := filepath.EvalSymlinks(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out[target] = unescapeUdev(e.Name())
	}
	return out
}

func resolveDevice(dev string) string {
	if dev == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(dev); err == nil {
		return resolved
	}
	return dev
}

// unescapeUdev decodes the \xNN escapes udev uses in by-label names.
func unescapeUdev(name string) string {
	if !strings.Contains(name, `\x`) {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' && i+3 < len(name) && name[i+1] == 'x' {
			if v, err := strconv.ParseUint(name[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(name[i])
	}
	return b.String()
}
