package read

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/sysinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewReadCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReadProbe(t *testing.T) {
	out, err := run(t, "probe")
	require.NoError(t, err)
	assert.Contains(t, out, "System test successful")
	assert.Contains(t, out, runtime.GOARCH)
}

func TestReadSpecs(t *testing.T) {
	out, err := run(t, "specs")
	require.NoError(t, err)
	assert.Contains(t, out, "Architecture:")

	out, err = run(t, "specs", "--format", "json")
	require.NoError(t, err)
	var specs sysinfo.SystemSpecs
	require.NoError(t, json.Unmarshal([]byte(out), &specs))
	assert.Equal(t, runtime.GOOS, specs.OS)
}

func TestSpecRows(t *testing.T) {
	t.Parallel()
	rows := specRows(&sysinfo.SystemSpecs{
		Hostname:      "lab-01",
		Platform:      "ubuntu",
		OSVersion:     "24.04",
		CPUCores:      4,
		CPUThreads:    8,
		UptimeSeconds: 90,
		Disks:         []string{"/dev/sda1"},
	})

	got := map[string]string{}
	for _, r := range rows {
		got[r[0]] = r[1]
	}
	assert.Equal(t, "ubuntu 24.04", got["OS"])
	assert.Equal(t, "4 / 8", got["Cores / threads"])
	assert.Equal(t, "1m30s", got["Uptime"])
	assert.Equal(t, "/dev/sda1", got["Disk"])
	assert.NotContains(t, got, "Battery")
	assert.NotContains(t, got, "GPU")
}

func TestSpecRowsBatteryAndGPU(t *testing.T) {
	t.Parallel()
	rows := specRows(&sysinfo.SystemSpecs{
		Battery: &sysinfo.Battery{Name: "BAT0", Percent: 81, CycleCount: 312, Status: "Discharging"},
		GPUs:    []sysinfo.GPU{{Card: "card0", Vendor: "Intel", DeviceID: "0x46a6", Driver: "i915"}},
	})

	got := map[string]string{}
	for _, r := range rows {
		got[r[0]] = r[1]
	}
	assert.Equal(t, "81%, discharging, 312 cycles", got["Battery"])
	assert.Equal(t, "Intel 0x46a6 (i915)", got["GPU"])
}
