// Package sysinfo reports what the host is, for diagnostics. It shares no
// state with the sanitization core.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DiagnosticProbe is a liveness check that touches nothing but the runtime.
func DiagnosticProbe() string {
	return fmt.Sprintf("System test successful | OS: %s | Arch: %s", runtime.GOOS, runtime.GOARCH)
}

// CollectSpecs gathers host details. Sources that fail are listed in
// Warnings; the call itself only fails when ctx is done.
func CollectSpecs(ctx context.Context) (*SystemSpecs, error) {
	logger := otelzap.Ctx(ctx)
	specs := &SystemSpecs{OS: runtime.GOOS, Arch: runtime.GOARCH}
	var errs *multierror.Error

	if info, err := host.InfoWithContext(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("host: %w", err))
	} else {
		specs.Hostname = info.Hostname
		specs.Platform = info.Platform
		specs.OSVersion = info.PlatformVersion
		specs.Kernel = info.KernelVersion
		specs.UptimeSeconds = info.Uptime
	}

	if infos, err := cpu.InfoWithContext(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(infos) > 0 {
		specs.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		specs.CPUCores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		specs.CPUThreads = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("memory: %w", err))
	} else {
		specs.MemoryTotal = vm.Total
		specs.MemoryUsed = vm.Used
	}

	if parts, err := disk.PartitionsWithContext(ctx, false); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("disks: %w", err))
	} else {
		for _, p := range parts {
			specs.Disks = append(specs.Disks, p.Mountpoint)
		}
	}

	if ifaces, err := psnet.InterfacesWithContext(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("network: %w", err))
	} else {
		for _, i := range ifaces {
			specs.Interfaces = append(specs.Interfaces, i.Name)
		}
	}

	// absent on hosts without sysfs, and on desktops without a battery
	specs.Battery = readBattery(sysRoot)
	specs.GPUs = readGPUs(sysRoot)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if errs != nil {
		for _, e := range errs.Errors {
			specs.Warnings = append(specs.Warnings, e.Error())
		}
		logger.Warn("Some system details could not be read", zap.Error(errs))
	}
	return specs, nil
}
