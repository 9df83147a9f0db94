package sysinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// supply writes a fake /sys/class/power_supply/<name> directory.
func supply(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	for file, content := range files {
		testutil.CreateTestFile(t, root, filepath.Join("class/power_supply", name, file), content+"\n", 0o644)
	}
}

func TestReadBattery(t *testing.T) {
	t.Parallel()

	tests := []testutil.TableTest[struct {
		setup func(t *testing.T, root string)
		want  *Battery
	}]{
		{
			Name: "laptop with mains adapter",
			Input: struct {
				setup func(t *testing.T, root string)
				want  *Battery
			}{
				setup: func(t *testing.T, root string) {
					supply(t, root, "AC", map[string]string{"type": "Mains", "online": "1"})
					supply(t, root, "BAT0", map[string]string{
						"type": "Battery", "capacity": "81", "cycle_count": "312", "status": "Discharging",
					})
				},
				want: &Battery{Name: "BAT0", Percent: 81, CycleCount: 312, Status: "Discharging"},
			},
		},
		{
			Name: "peripheral battery ignored",
			Input: struct {
				setup func(t *testing.T, root string)
				want  *Battery
			}{
				setup: func(t *testing.T, root string) {
					supply(t, root, "hidpp_battery_0", map[string]string{"type": "Battery", "scope": "Device", "capacity": "40"})
				},
			},
		},
		{
			Name: "energy counters only",
			Input: struct {
				setup func(t *testing.T, root string)
				want  *Battery
			}{
				setup: func(t *testing.T, root string) {
					supply(t, root, "CMB0", map[string]string{
						"type": "Battery", "energy_now": "25000000", "energy_full": "50000000", "status": "Charging",
					})
				},
				want: &Battery{Name: "CMB0", Percent: 50, Status: "Charging"},
			},
		},
		{
			Name: "capacity above full is clamped",
			Input: struct {
				setup func(t *testing.T, root string)
				want  *Battery
			}{
				setup: func(t *testing.T, root string) {
					supply(t, root, "BAT1", map[string]string{"type": "Battery", "capacity": "104"})
				},
				want: &Battery{Name: "BAT1", Percent: 100},
			},
		},
		{
			Name: "no readings",
			Input: struct {
				setup func(t *testing.T, root string)
				want  *Battery
			}{
				setup: func(t *testing.T, root string) {
					supply(t, root, "BAT0", map[string]string{"type": "Battery", "status": "Unknown"})
				},
			},
		},
		{
			Name: "no power_supply class",
			Input: struct {
				setup func(t *testing.T, root string)
				want  *Battery
			}{
				setup: func(*testing.T, string) {},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			tt.Input.setup(t, root)
			assert.Equal(t, tt.Input.want, readBattery(root))
		})
	}
}

// card writes a fake /sys/class/drm/<name> entry with a device directory.
func card(t *testing.T, root, name, driver, uevent string) {
	t.Helper()
	device := filepath.Join(root, "class/drm", name, "device")
	require.NoError(t, os.MkdirAll(device, 0o755))
	if driver != "" {
		require.NoError(t, os.Symlink(filepath.Join("../../../bus/pci/drivers", driver), filepath.Join(device, "driver")))
	}
	if uevent != "" {
		testutil.CreateTestFile(t, device, "uevent", uevent, 0o644)
	}
}

func TestReadGPUs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	card(t, root, "card10", "", "DRIVER=vc4\nOF_NAME=gpu\n")
	card(t, root, "card1", "amdgpu", "DRIVER=amdgpu\nPCI_ID=1002:744A\nPCI_SLOT_NAME=0000:c3:00.0\n")
	card(t, root, "card0", "i915", "PCI_ID=8086:46A6\nPCI_SLOT_NAME=0000:00:02.0\n")
	card(t, root, "card0-eDP-1", "", "")
	card(t, root, "renderD128", "i915", "PCI_ID=8086:46A6\n")

	gpus := readGPUs(root)
	require.Len(t, gpus, 3)
	assert.Equal(t, GPU{Card: "card0", Vendor: "Intel", DeviceID: "0x46a6", Driver: "i915", PCISlot: "0000:00:02.0"}, gpus[0])
	assert.Equal(t, GPU{Card: "card1", Vendor: "AMD", DeviceID: "0x744a", Driver: "amdgpu", PCISlot: "0000:c3:00.0"}, gpus[1])
	assert.Equal(t, GPU{Card: "card10"}, gpus[2])

	assert.Equal(t, "AMD 0x744a (amdgpu)", gpus[1].String())
	assert.Equal(t, "card10", gpus[2].String())
}

func TestReadGPUsWithoutDRM(t *testing.T) {
	t.Parallel()
	assert.Nil(t, readGPUs(t.TempDir()))
}

func TestIsCardDevice(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]bool{
		"card0": true, "card12": true, "card": false, "card0-DP-1": false, "renderD128": false, "version": false,
	} {
		assert.Equal(t, want, isCardDevice(name), name)
	}
}

func TestPCIVendorName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "NVIDIA", pciVendorName("10de"))
	assert.Equal(t, "0x1234", pciVendorName("1234"))
	assert.Empty(t, pciVendorName(""))
}
