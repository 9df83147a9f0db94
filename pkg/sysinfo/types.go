// pkg/sysinfo/types.go
package sysinfo

import "strings"

// SystemSpecs is a point-in-time description of the host, for display only.
type SystemSpecs struct {
	Hostname      string   `json:"hostname" yaml:"hostname"`
	OS            string   `json:"os" yaml:"os"`
	Platform      string   `json:"platform" yaml:"platform"`
	OSVersion     string   `json:"os_version" yaml:"os_version"`
	Kernel        string   `json:"kernel" yaml:"kernel"`
	Arch          string   `json:"arch" yaml:"arch"`
	CPUModel      string   `json:"cpu_model" yaml:"cpu_model"`
	CPUCores      int      `json:"cpu_cores" yaml:"cpu_cores"`
	CPUThreads    int      `json:"cpu_threads" yaml:"cpu_threads"`
	MemoryTotal   uint64   `json:"memory_total" yaml:"memory_total"`
	MemoryUsed    uint64   `json:"memory_used" yaml:"memory_used"`
	Disks         []string `json:"disks" yaml:"disks"`
	Interfaces    []string `json:"interfaces" yaml:"interfaces"`
	Battery       *Battery `json:"battery,omitempty" yaml:"battery,omitempty"`
	GPUs          []GPU    `json:"gpus,omitempty" yaml:"gpus,omitempty"`
	Warnings      []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	UptimeSeconds uint64   `json:"uptime_seconds" yaml:"uptime_seconds"`
}

// Battery is the first system battery the kernel reports.
type Battery struct {
	Name       string `json:"name" yaml:"name"`
	Percent    int    `json:"percent" yaml:"percent"`
	CycleCount int    `json:"cycle_count,omitempty" yaml:"cycle_count,omitempty"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
}

// GPU is one DRM card.
type GPU struct {
	Card     string `json:"card" yaml:"card"`
	Vendor   string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	DeviceID string `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	Driver   string `json:"driver,omitempty" yaml:"driver,omitempty"`
	PCISlot  string `json:"pci_slot,omitempty" yaml:"pci_slot,omitempty"`
}

// String renders the GPU for a one-line display, e.g. "AMD 0x744a (amdgpu)".
func (g GPU) String() string {
	name := strings.TrimSpace(g.Vendor + " " + g.DeviceID)
	if name == "" {
		name = g.Card
	}
	if g.Driver != "" {
		name += " (" + g.Driver + ")"
	}
	return name
}
