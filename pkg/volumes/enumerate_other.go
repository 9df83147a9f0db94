//go:build !linux && !darwin && !freebsd && !windows

// pkg/volumes/enumerate_other.go

package volumes

import (
	"context"
	"fmt"
	"runtime"
)

type unsupportedEnumerator struct{}

// NewPlatformEnumerator returns an enumerator that always fails on hosts
// without a supported mount-table source.
func NewPlatformEnumerator() VolumeEnumerator {
	return unsupportedEnumerator{}
}

func (unsupportedEnumerator) Enumerate(context.Context) ([]Descriptor, error) {
	return nil, fmt.Errorf("volume enumeration is not supported on %s", runtime.GOOS)
}
