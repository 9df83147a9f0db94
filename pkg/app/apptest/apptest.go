// Package apptest installs a throwaway configuration and a fake volume set
// for command tests.
package apptest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/app"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/config"
	"github.com/CodeMonkeyCybersecurity/eos-sanitizer/pkg/volumes"
	"github.com/c2h5oh/datasize"
)

// Host is a fake machine with one system volume and one removable volume,
// both backed by temp directories.
type Host struct {
	Config    *config.Config
	System    string
	Removable string
}

// Volumes returns the descriptors the fake enumerator reports.
func (h *Host) Volumes() []volumes.Descriptor {
	return []volumes.Descriptor{
		{Identifier: h.System, Label: "OS", FilesystemKind: "ext4", CapacityBytes: 64 << 30, FreeBytes: 10 << 30, IsSystem: true},
		{Identifier: h.Removable, Label: "USB", FilesystemKind: "vfat", CapacityBytes: 8 << 30, FreeBytes: 7 << 30, Serial: 0x1234ABCD},
	}
}

// Install points app.FromConfig at a fake host for the duration of the test.
// Overwrites are kept small: two 4 KiB blocks per pass.
func Install(t *testing.T) *Host {
	t.Helper()
	h := &Host{System: t.TempDir(), Removable: t.TempDir()}

	cfg := config.Default()
	cfg.Overwrite.BlockSize = 4 * datasize.KB
	cfg.Overwrite.MaxIterations = 2
	cfg.Journal.Dir = filepath.Join(t.TempDir(), "journal")
	cfg.Telemetry.Path = filepath.Join(t.TempDir(), "telemetry.jsonl")
	h.Config = cfg

	app.SetConfig(cfg)
	app.SetDefaultOptions(app.WithEnumerator(volumes.EnumeratorFunc(func(context.Context) ([]volumes.Descriptor, error) {
		return h.Volumes(), nil
	})))
	t.Cleanup(func() {
		app.SetConfig(nil)
		app.SetDefaultOptions()
	})
	return h
}
