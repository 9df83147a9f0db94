//go:build linux || darwin || freebsd

package volumes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/testutil"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost builds a by-label/by-uuid tree pointing at fake device nodes.
type fakeHost struct {
	root     string
	labelDir string
	uuidDir  string
}

func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()
	root := t.TempDir()
	h := &fakeHost{
		root:     root,
		labelDir: filepath.Join(root, "by-label"),
		uuidDir:  filepath.Join(root, "by-uuid"),
	}
	require.NoError(t, os.MkdirAll(h.labelDir, 0o755))
	require.NoError(t, os.MkdirAll(h.uuidDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dev"), 0o755))
	return h
}

func (h *fakeHost) device(t *testing.T, name, label, uuid string) string {
	t.Helper()
	dev := filepath.Join(h.root, "dev", name)
	require.NoError(t, os.WriteFile(dev, nil, 0o600))
	if label != "" {
		require.NoError(t, os.Symlink(dev, filepath.Join(h.labelDir, label)))
	}
	if uuid != "" {
		require.NoError(t, os.Symlink(dev, filepath.Join(h.uuidDir, uuid)))
	}
	resolved, err := filepath.EvalSymlinks(dev)
	require.NoError(t, err)
	return resolved
}

func (h *fakeHost) enumerator(goos string, parts []disk.PartitionStat, usage map[string]*disk.UsageStat, usageErr map[string]error) *mountEnumerator {
	return &mountEnumerator{
		partitions: func(context.Context, bool) ([]disk.PartitionStat, error) { return parts, nil },
		usage: func(_ context.Context, path string) (*disk.UsageStat, error) {
			if err, ok := usageErr[path]; ok {
				return nil, err
			}
			if u, ok := usage[path]; ok {
				return u, nil
			}
			return &disk.UsageStat{}, nil
		},
		labelDir: h.labelDir,
		uuidDir:  h.uuidDir,
		goos:     goos,
	}
}

func TestMountEnumerator(t *testing.T) {
	h := newFakeHost(t)
	rootDev := h.device(t, "sda2", "", "8c5e0f1a-6a1b-4c1f-9a3e-1f2d3c4b5a69")
	usbDev := h.device(t, "sdb1", `MY\x20USB`, "1234-ABCD")
	dataDev := h.device(t, "sdc1", "", "")

	parts := []disk.PartitionStat{
		{Device: rootDev, Mountpoint: "/", Fstype: "ext4", Opts: []string{"rw"}},
		{Device: usbDev, Mountpoint: "/media/alice/MY USB", Fstype: "vfat", Opts: []string{"rw"}},
		{Device: dataDev, Mountpoint: "/srv/data", Fstype: "xfs", Opts: []string{"rw"}},
		{Device: "/dev/loop3", Mountpoint: "/snap/core/1", Fstype: "squashfs", Opts: []string{"ro"}},
		{Device: dataDev, Mountpoint: "/srv/bind", Fstype: "xfs", Opts: []string{"rw"}},
		{Device: "/dev/sr0", Mountpoint: "/media/cdrom", Fstype: "iso9660", Opts: []string{"ro"}},
	}
	usage := map[string]*disk.UsageStat{
		"/":                   {Total: 500 << 30, Free: 100 << 30},
		"/media/alice/MY USB": {Total: 32 << 30, Free: 31 << 30},
		"/srv/data":           {Total: 1 << 40, Free: 1 << 39},
	}

	vols, err := h.enumerator("linux", parts, usage, nil).Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 3)

	assert.Equal(t, Descriptor{
		Identifier: "/", CapacityBytes: 500 << 30, FreeBytes: 100 << 30,
		FilesystemKind: "ext4", IsSystem: true,
	}, vols[0])
	assert.Equal(t, Descriptor{
		Identifier: "/media/alice/MY USB", CapacityBytes: 32 << 30, FreeBytes: 31 << 30,
		Label: "MY USB", FilesystemKind: "vfat", Serial: 0x1234ABCD,
	}, vols[1])
	assert.Equal(t, "/srv/data", vols[2].Identifier)
	assert.Equal(t, "data", vols[2].Label)
	assert.False(t, vols[2].IsSystem)
}

func TestMountEnumeratorPrefersRootForSharedDevice(t *testing.T) {
	h := newFakeHost(t)
	dev := h.device(t, "sda1", "", "")

	parts := []disk.PartitionStat{
		{Device: dev, Mountpoint: "/var/lib/docker", Fstype: "ext4"},
		{Device: dev, Mountpoint: "/", Fstype: "ext4"},
	}

	vols, err := h.enumerator("linux", parts, nil, nil).Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, "/", vols[0].Identifier)
	assert.True(t, vols[0].IsSystem)
}

func TestMountEnumeratorFindsSystemByDevice(t *testing.T) {
	h := newFakeHost(t)
	parts := []disk.PartitionStat{
		{Device: h.device(t, "sda1", "", ""), Mountpoint: "/etc/hosts", Fstype: "ext4"},
		{Device: h.device(t, "sdb1", "", ""), Mountpoint: "/media/usb", Fstype: "vfat"},
	}

	tests := []testutil.TableTest[struct {
		devices map[string]uint64
		system  string
	}]{
		{Name: "overlay root backed by host disk", Input: struct {
			devices map[string]uint64
			system  string
		}{
			devices: map[string]uint64{"/": 40, "/etc": 40, "/usr/bin": 40, "/opt/eos-sanitizer": 8, "/etc/hosts": 8, "/media/usb": 17},
			system:  "/etc/hosts",
		}},
		{Name: "first matching anchor wins", Input: struct {
			devices map[string]uint64
			system  string
		}{
			devices: map[string]uint64{"/": 17, "/etc": 8, "/etc/hosts": 8, "/media/usb": 17},
			system:  "/media/usb",
		}},
		{Name: "no anchor on a listed mount", Input: struct {
			devices map[string]uint64
			system  string
		}{
			devices: map[string]uint64{"/": 40, "/etc": 40, "/etc/hosts": 8, "/media/usb": 17},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			m := h.enumerator("linux", parts, nil, nil)
			m.anchors = []string{"/", "/etc", "/usr/bin", "/opt/eos-sanitizer"}
			m.deviceID = func(path string) (uint64, error) {
				if id, ok := tt.Input.devices[path]; ok {
					return id, nil
				}
				return 0, syscall.ENOENT
			}

			vols, err := m.Enumerate(context.Background())
			require.NoError(t, err)
			require.Len(t, vols, 2)
			for _, v := range vols {
				assert.Equal(t, v.Identifier == tt.Input.system, v.IsSystem, v.Identifier)
			}
		})
	}
}

func TestMountEnumeratorRootNeedsNoDeviceMatch(t *testing.T) {
	h := newFakeHost(t)
	parts := []disk.PartitionStat{
		{Device: h.device(t, "sda1", "", ""), Mountpoint: "/", Fstype: "ext4"},
		{Device: h.device(t, "sdb1", "", ""), Mountpoint: "/media/usb", Fstype: "vfat"},
	}
	m := h.enumerator("linux", parts, nil, nil)
	m.anchors = []string{"/"}
	m.deviceID = func(string) (uint64, error) { return 1, nil }

	vols, err := m.Enumerate(context.Background())
	require.NoError(t, err)
	assert.True(t, vols[0].IsSystem)
	assert.False(t, vols[1].IsSystem, "device ids are only consulted when / is absent")
}

func TestDeviceIDOfRoot(t *testing.T) {
	a, err := deviceID("/")
	require.NoError(t, err)
	b, err := deviceID("/.")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = deviceID(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMountEnumeratorDegradesAndSkipsVanished(t *testing.T) {
	h := newFakeHost(t)
	a := h.device(t, "sdd1", "", "")
	b := h.device(t, "sde1", "", "")

	parts := []disk.PartitionStat{
		{Device: a, Mountpoint: "/mnt/locked", Fstype: "ext4"},
		{Device: b, Mountpoint: "/mnt/gone", Fstype: "ext4"},
	}
	usageErr := map[string]error{
		"/mnt/locked": syscall.EACCES,
		"/mnt/gone":   syscall.ENOENT,
	}

	vols, err := h.enumerator("linux", parts, nil, usageErr).Enumerate(context.Background())
	var deg *Degradation
	require.True(t, errors.As(err, &deg))
	require.Len(t, vols, 1)
	assert.Equal(t, "/mnt/locked", vols[0].Identifier)
	assert.Zero(t, vols[0].CapacityBytes)
	assert.Len(t, deg.Errs.Errors, 1)
}

func TestMountEnumeratorSkipsDarwinSystemGroup(t *testing.T) {
	h := newFakeHost(t)
	parts := []disk.PartitionStat{
		{Device: h.device(t, "disk3s1s1", "", ""), Mountpoint: "/", Fstype: "apfs", Opts: []string{"ro"}},
		{Device: h.device(t, "disk3s5", "", ""), Mountpoint: "/System/Volumes/Data", Fstype: "apfs"},
		{Device: h.device(t, "disk4s1", "", ""), Mountpoint: "/Volumes/BACKUP", Fstype: "apfs"},
	}

	vols, err := h.enumerator("darwin", parts, nil, nil).Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 2)
	assert.Equal(t, "/", vols[0].Identifier)
	assert.True(t, vols[0].IsSystem)
	assert.Equal(t, "BACKUP", vols[1].Label)
}

func TestMountEnumeratorTableFailure(t *testing.T) {
	m := &mountEnumerator{
		partitions: func(context.Context, bool) ([]disk.PartitionStat, error) {
			return nil, errors.New("no /proc")
		},
	}
	_, err := m.Enumerate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read mount table")
}

func TestUnescapeUdev(t *testing.T) {
	assert.Equal(t, "MY USB", unescapeUdev(`MY\x20USB`))
	assert.Equal(t, "plain", unescapeUdev("plain"))
	assert.Equal(t, `bad\xZZ`, unescapeUdev(`bad\xZZ`))
}
