// pkg/volumes/types.go

package volumes

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Descriptor is a snapshot of one mounted volume as reported by the host.
// Descriptors are values: they are never mutated after construction and
// never persisted, so every decision works from a fresh enumeration.
type Descriptor struct {
	// Identifier is the OS-level name used to address the volume, e.g. a
	// mount point ("/media/usb") or a drive root ("E:\").
	Identifier     string `json:"identifier" yaml:"identifier"`
	CapacityBytes  uint64 `json:"capacity_bytes" yaml:"capacity_bytes"`
	FreeBytes      uint64 `json:"free_bytes" yaml:"free_bytes"`
	Label          string `json:"label" yaml:"label"`
	FilesystemKind string `json:"filesystem_kind" yaml:"filesystem_kind"`
	Serial         uint32 `json:"serial" yaml:"serial"`
	// IsSystem marks the volume hosting the running operating system.
	IsSystem bool `json:"is_system" yaml:"is_system"`
}

// VolumeEnumerator reports the volumes currently mounted on the host.
// Implementations may return a *Degradation alongside a usable result.
type VolumeEnumerator interface {
	Enumerate(ctx context.Context) ([]Descriptor, error)
}

// EnumeratorFunc adapts a plain function to VolumeEnumerator.
type EnumeratorFunc func(ctx context.Context) ([]Descriptor, error)

func (f EnumeratorFunc) Enumerate(ctx context.Context) ([]Descriptor, error) { return f(ctx) }

// Degradation reports per-volume metadata that could not be read. The
// descriptors returned with it are complete, with defaults in place of the
// missing fields.
type Degradation struct {
	Errs *multierror.Error
}

func (d *Degradation) Error() string {
	if d == nil || d.Errs == nil {
		return "volume metadata degraded"
	}
	return d.Errs.Error()
}

func (d *Degradation) Unwrap() error {
	if d == nil || d.Errs == nil {
		return nil
	}
	return d.Errs.ErrorOrNil()
}

func (d *Degradation) add(err error) {
	d.Errs = multierror.Append(d.Errs, err)
}

// orNil returns d as an error only if something was recorded.
func (d *Degradation) orNil() error {
	if d.Errs == nil || len(d.Errs.Errors) == 0 {
		return nil
	}
	return d
}
