// pkg/sysinfo/sysfs.go

package sysinfo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// sysRoot is where sysfs is mounted. Hosts without it report no battery or GPU.
const sysRoot = "/sys"

// readBattery returns the first battery that powers the system, skipping
// mains adapters and peripherals such as wireless mice.
func readBattery(root string) *Battery {
	base := filepath.Join(root, "class/power_supply")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		dir := filepath.Join(base, name)
		if readSysfsString(filepath.Join(dir, "type")) != "Battery" {
			continue
		}
		if readSysfsString(filepath.Join(dir, "scope")) == "Device" {
			continue
		}
		percent, ok := batteryPercent(dir)
		if !ok {
			continue
		}
		return &Battery{
			Name:       name,
			Percent:    percent,
			CycleCount: readSysfsInt(filepath.Join(dir, "cycle_count")),
			Status:     readSysfsString(filepath.Join(dir, "status")),
		}
	}
	return nil
}

// batteryPercent prefers the kernel's capacity figure and falls back to
// energy or charge counters, which some firmware exposes instead.
func batteryPercent(dir string) (int, bool) {
	if v := readSysfsString(filepath.Join(dir, "capacity")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return clampPercent(n), true
		}
	}
	for _, pair := range [][2]string{{"energy_now", "energy_full"}, {"charge_now", "charge_full"}} {
		now := readSysfsInt64(filepath.Join(dir, pair[0]))
		full := readSysfsInt64(filepath.Join(dir, pair[1]))
		if full > 0 {
			return clampPercent(int(now * 100 / full)), true
		}
	}
	return 0, false
}

func clampPercent(n int) int {
	return max(0, min(100, n))
}

// readGPUs lists DRM cards with their PCI identity and kernel driver.
func readGPUs(root string) []GPU {
	base := filepath.Join(root, "class/drm")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}

	var gpus []GPU
	for _, e := range entries {
		if !isCardDevice(e.Name()) {
			continue
		}
		devicePath := filepath.Join(base, e.Name(), "device")
		vendor, deviceID, slot := parsePCIUevent(devicePath)
		gpus = append(gpus, GPU{
			Card:     e.Name(),
			Vendor:   vendor,
			DeviceID: deviceID,
			Driver:   readDriverName(devicePath),
			PCISlot:  slot,
		})
	}
	sort.Slice(gpus, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(gpus[i].Card, "card"))
		b, _ := strconv.Atoi(strings.TrimPrefix(gpus[j].Card, "card"))
		return a < b
	})
	return gpus
}

// isCardDevice accepts card0, card1, ... but not connectors (card0-DP-1)
// or render nodes (renderD128).
func isCardDevice(name string) bool {
	suffix, ok := strings.CutPrefix(name, "card")
	if !ok || suffix == "" {
		return false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// readDriverName is the basename of the device's "driver" symlink.
func readDriverName(devicePath string) string {
	link, err := os.Readlink(filepath.Join(devicePath, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(link)
}

// parsePCIUevent pulls the vendor, device ID and slot out of lines like
//
//	PCI_ID=1002:744A
//	PCI_SLOT_NAME=0000:c3:00.0
func parsePCIUevent(devicePath string) (vendor, deviceID, slot string) {
	data, err := os.ReadFile(filepath.Join(devicePath, "uevent"))
	if err != nil {
		return "", "", ""
	}
	var rawVendor, rawDevice string
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "PCI_ID":
			if v, d, ok := strings.Cut(value, ":"); ok {
				rawVendor, rawDevice = strings.ToLower(v), strings.ToLower(d)
			}
		case "PCI_SLOT_NAME":
			slot = value
		}
	}
	if rawDevice != "" {
		deviceID = "0x" + rawDevice
	}
	return pciVendorName(rawVendor), deviceID, slot
}

func pciVendorName(id string) string {
	switch id {
	case "":
		return ""
	case "1002":
		return "AMD"
	case "10de":
		return "NVIDIA"
	case "8086":
		return "Intel"
	case "1af4":
		return "Red Hat (virtio)"
	case "15ad":
		return "VMware"
	default:
		return "0x" + id
	}
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsInt(path string) int {
	n, _ := strconv.Atoi(readSysfsString(path))
	return n
}

func readSysfsInt64(path string) int64 {
	n, _ := strconv.ParseInt(readSysfsString(path), 10, 64)
	return n
}
